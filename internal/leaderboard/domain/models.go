// Package domain contains versioned leaderboard snapshots and their
// ranked rows.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Trend compares a user's achievement percentage with the previous
// snapshot of the same period.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Snapshot is one immutable leaderboard computation. Snapshots are
// append-only; a recomputed leaderboard is a new snapshot, never an
// update of an old one.
type Snapshot struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	PeriodID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_leaderboard_snapshot,priority:1" json:"period_id"`
	RulesVersion string       `gorm:"type:text;not null;uniqueIndex:ux_leaderboard_snapshot,priority:2" json:"rules_version"`
	ComputedAt   time.Time    `gorm:"not null;uniqueIndex:ux_leaderboard_snapshot,priority:3" json:"computed_at"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "leaderboard_snapshots" }

// Row is one user's standing inside a snapshot. Ranks are a dense 1..n
// sequence with no duplicates; ties on achievement_pct fall back to
// score, then ascending user id.
type Row struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	SnapshotID     snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_leaderboard_row,priority:1" json:"snapshot_id"`
	UserID         snowflake.ID    `gorm:"not null;uniqueIndex:ux_leaderboard_row,priority:2" json:"user_id"`
	Rank           int             `gorm:"not null" json:"rank"`
	Score          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"score"`
	AchievementPct decimal.Decimal `gorm:"type:numeric(7,2);not null" json:"achievement_pct"`
	Trend          string          `gorm:"type:text;not null" json:"trend"`
	StreakDays     int             `gorm:"not null" json:"streak_days"`
}

// TableName sets the database table name.
func (Row) TableName() string { return "leaderboard_rows" }
