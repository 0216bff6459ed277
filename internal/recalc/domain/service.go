package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Tracker manages the per-period dirty flag. MarkDirty and Clear run on
// the caller's transaction so the flag moves atomically with the write
// that invalidated or refreshed the derived targets.
type Tracker interface {
	MarkDirty(ctx context.Context, tx *gorm.DB, periodID snowflake.ID, reason string) error
	Clear(ctx context.Context, tx *gorm.DB, periodID snowflake.ID, runID string) error
	Get(ctx context.Context, periodID snowflake.ID) (*RecalcFlag, error)
}
