// Package domain contains the derived per-user weekly targets owned by
// the allocation engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// UserWeekTarget is one user's derived target for a week and category.
// The set for a period is replaced wholesale on every recompute and is
// never patched row by row.
type UserWeekTarget struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	PeriodID   snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_user_week_target,priority:1" json:"period_id"`
	WeekID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_user_week_target,priority:2" json:"week_id"`
	UserID     snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_user_week_target,priority:3" json:"user_id"`
	CategoryID snowflake.ID    `gorm:"not null;uniqueIndex:ux_user_week_target,priority:4" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UserWeekTarget) TableName() string { return "user_week_targets" }
