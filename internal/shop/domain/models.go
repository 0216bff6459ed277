// Package domain contains persistence models for the shop service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Shop represents a tenant whose team is tracked against sales targets.
type Shop struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"type:text;not null" json:"name"`
	Slug         string            `gorm:"type:text;not null;uniqueIndex:ux_shops_slug" json:"slug"`
	TimezoneName string            `gorm:"column:timezone_name" json:"timezone_name"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Shop) TableName() string { return "shops" }

// ShopMember represents membership of a user in a shop. Only active
// members participate in target allocation.
type ShopMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ShopID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_shop_user,priority:1" json:"shop_id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_shop_user,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ShopMember) TableName() string { return "shop_members" }

// Category is the unit a target or achievement is expressed in. The unit
// is presentational only; the engine treats every category alike.
type Category struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ShopID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_shop_category,priority:1" json:"shop_id"`
	Name      string       `gorm:"type:text;not null;uniqueIndex:ux_shop_category,priority:2" json:"name"`
	Unit      string       `gorm:"type:text;not null" json:"unit"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }
