package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoreline/internal/clock"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Tracker struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

type TrackerParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func NewTracker(p TrackerParam) recalcdomain.Tracker {
	return &Tracker{
		db:    p.DB,
		log:   p.Log.Named("recalc.tracker"),
		clock: p.Clock,
	}
}

func (t *Tracker) MarkDirty(ctx context.Context, tx *gorm.DB, periodID snowflake.ID, reason string) error {
	now := t.clock.Now()
	flag := recalcdomain.RecalcFlag{
		PeriodID: periodID,
		Dirty:    true,
		Reason:   reason,
		MarkedAt: &now,
	}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"dirty":     true,
			"reason":    reason,
			"marked_at": now,
		}),
	}).Create(&flag).Error
	if err != nil {
		return err
	}

	t.log.Debug("period marked dirty",
		zap.String("period_id", periodID.String()),
		zap.String("reason", reason),
	)
	return nil
}

func (t *Tracker) Clear(ctx context.Context, tx *gorm.DB, periodID snowflake.ID, runID string) error {
	now := t.clock.Now()
	return tx.WithContext(ctx).Model(&recalcdomain.RecalcFlag{}).
		Where("period_id = ?", periodID).
		Updates(map[string]any{
			"dirty":       false,
			"reason":      "",
			"cleared_at":  now,
			"last_run_id": runID,
		}).Error
}

func (t *Tracker) Get(ctx context.Context, periodID snowflake.ID) (*recalcdomain.RecalcFlag, error) {
	var flag recalcdomain.RecalcFlag
	err := t.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Limit(1).
		Find(&flag).Error
	if err != nil {
		return nil, err
	}
	if flag.PeriodID == 0 {
		return nil, nil
	}
	return &flag, nil
}
