// Package domain contains persistence models for period target configuration.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MonthlyTarget is the target value for one category across a whole period.
type MonthlyTarget struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	PeriodID   snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_period_category,priority:1" json:"period_id"`
	CategoryID snowflake.ID    `gorm:"not null;uniqueIndex:ux_period_category,priority:2" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MonthlyTarget) TableName() string { return "monthly_targets" }

// WeeklyDistribution assigns a week its percentage of the monthly target.
type WeeklyDistribution struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	PeriodID  snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_period_week_dist,priority:1" json:"period_id"`
	WeekID    snowflake.ID    `gorm:"not null;uniqueIndex:ux_period_week_dist,priority:2" json:"week_id"`
	Percent   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percent"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WeeklyDistribution) TableName() string { return "weekly_distributions" }

// WeeklyRoleWeight assigns a role its percentage of one week's target.
type WeeklyRoleWeight struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	PeriodID  snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_period_week_role,priority:1" json:"period_id"`
	WeekID    snowflake.ID    `gorm:"not null;uniqueIndex:ux_period_week_role,priority:2" json:"week_id"`
	Role      string          `gorm:"type:text;not null;uniqueIndex:ux_period_week_role,priority:3" json:"role"`
	Percent   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percent"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WeeklyRoleWeight) TableName() string { return "weekly_role_weights" }
