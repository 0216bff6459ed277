// Package domain contains the per-period recalculation flag.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecalcFlag records whether derived targets are stale relative to the
// period's configuration or membership. One row per period.
type RecalcFlag struct {
	PeriodID  snowflake.ID `gorm:"primaryKey" json:"period_id"`
	Dirty     bool         `gorm:"not null;default:false" json:"dirty"`
	Reason    string       `gorm:"type:text" json:"reason"`
	MarkedAt  *time.Time   `json:"marked_at"`
	ClearedAt *time.Time   `json:"cleared_at"`
	LastRunID string       `gorm:"type:text" json:"last_run_id"`
}

// TableName sets the database table name.
func (RecalcFlag) TableName() string { return "recalc_flags" }
