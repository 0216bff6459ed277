// Package domain contains persistence models for periods and their weeks.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PeriodStatus string

const (
	PeriodStatusDraft     PeriodStatus = "draft"
	PeriodStatusPublished PeriodStatus = "published"
	PeriodStatusLocked    PeriodStatus = "locked"
	PeriodStatusArchived  PeriodStatus = "archived"
)

// CanTransition reports whether a period may move from one status to the next.
func CanTransition(from, to PeriodStatus) bool {
	switch from {
	case PeriodStatusDraft:
		return to == PeriodStatusPublished
	case PeriodStatusPublished:
		return to == PeriodStatusDraft || to == PeriodStatusLocked
	case PeriodStatusLocked:
		return to == PeriodStatusArchived
	default:
		return false
	}
}

// Editable reports whether configuration writes are still allowed.
// Configuration freezes at lock.
func (s PeriodStatus) Editable() bool {
	return s == PeriodStatusDraft || s == PeriodStatusPublished
}

// Period is one shop-month of target configuration and tracking.
type Period struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ShopID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_shop_period,priority:1" json:"shop_id"`
	Year      int          `gorm:"not null;uniqueIndex:ux_shop_period,priority:2" json:"year"`
	Month     int          `gorm:"not null;uniqueIndex:ux_shop_period,priority:3" json:"month"`
	Status    PeriodStatus `gorm:"type:text;not null;default:draft" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Period) TableName() string { return "periods" }

// Week is a 7-day slice of a period; the final week may be shorter.
type Week struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	PeriodID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_period_week,priority:1" json:"period_id"`
	Seq       int          `gorm:"not null;uniqueIndex:ux_period_week,priority:2" json:"seq"`
	StartDate time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time    `gorm:"type:date;not null" json:"end_date"`
	DayCount  int          `gorm:"not null" json:"day_count"`
}

// TableName sets the database table name.
func (Week) TableName() string { return "weeks" }

// WeekSpan describes one week slice before persistence.
type WeekSpan struct {
	Seq       int
	StartDate time.Time
	EndDate   time.Time
	DayCount  int
}

// SliceMonth cuts a calendar month into consecutive 7-day spans starting
// on day 1. The last span absorbs whatever remains of the month.
func SliceMonth(year, month int) []WeekSpan {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	var spans []WeekSpan
	for day, seq := 1, 1; day <= daysInMonth; seq++ {
		count := 7
		if day+count-1 > daysInMonth {
			count = daysInMonth - day + 1
		}
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		spans = append(spans, WeekSpan{
			Seq:       seq,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, count-1),
			DayCount:  count,
		})
		day += count
	}
	return spans
}
