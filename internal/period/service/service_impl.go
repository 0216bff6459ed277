package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoreline/internal/clock"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"github.com/smallbiznis/scoreline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	validator validationdomain.Service
	tracker   recalcdomain.Tracker
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Validator validationdomain.Service
	Tracker   recalcdomain.Tracker
}

func NewService(p ServiceParam) perioddomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("period.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		validator: p.Validator,
		tracker:   p.Tracker,
	}
}

func (s *Service) Create(ctx context.Context, req perioddomain.CreatePeriodRequest) (*perioddomain.PeriodResponse, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, perioddomain.ErrInvalidMonth
	}
	if req.Year < 2000 || req.Year > 2200 {
		return nil, perioddomain.ErrInvalidYear
	}

	var shop shopdomain.Shop
	if err := s.db.WithContext(ctx).Where("id = ?", req.ShopID).Limit(1).Find(&shop).Error; err != nil {
		return nil, err
	}
	if shop.ID == 0 {
		return nil, shopdomain.ErrShopNotFound
	}

	period := perioddomain.Period{
		ID:     s.genID.Generate(),
		ShopID: req.ShopID,
		Year:   req.Year,
		Month:  req.Month,
		Status: perioddomain.PeriodStatusDraft,
	}

	spans := perioddomain.SliceMonth(req.Year, req.Month)
	weeks := make([]*perioddomain.Week, 0, len(spans))
	for _, span := range spans {
		weeks = append(weeks, &perioddomain.Week{
			ID:        s.genID.Generate(),
			PeriodID:  period.ID,
			Seq:       span.Seq,
			StartDate: span.StartDate,
			EndDate:   span.EndDate,
			DayCount:  span.DayCount,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&period).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return perioddomain.ErrDuplicatePeriod
			}
			return err
		}
		if err := tx.Create(weeks).Error; err != nil {
			return err
		}
		// A fresh period has no configuration, so its (empty) derived
		// targets are current until the first write arrives.
		return tx.Create(&recalcdomain.RecalcFlag{PeriodID: period.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("period created",
		zap.String("period_id", period.ID.String()),
		zap.String("shop_id", req.ShopID.String()),
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.Int("weeks", len(weeks)),
	)

	return s.respond(ctx, &period, weeks)
}

func (s *Service) GetByID(ctx context.Context, periodID snowflake.ID) (*perioddomain.PeriodResponse, error) {
	period, err := s.load(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	weeks, err := s.weeks(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, period, weeks)
}

// Transition moves a period to a new status. Transitions into published
// or locked require every percentage sum to equal 100 exactly; a dirty
// recalc flag is surfaced as a warning, not a block.
func (s *Service) Transition(ctx context.Context, periodID snowflake.ID, newStatus perioddomain.PeriodStatus) (*perioddomain.PeriodResponse, error) {
	var period *perioddomain.Period
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		period, err = s.load(ctx, db.LockForUpdate(tx), periodID)
		if err != nil {
			if db.IsLockNotAvailableErr(err) {
				return perioddomain.ErrPeriodBusy
			}
			return err
		}
		if !perioddomain.CanTransition(period.Status, newStatus) {
			return perioddomain.ErrInvalidTransition
		}

		if newStatus == perioddomain.PeriodStatusPublished || newStatus == perioddomain.PeriodStatusLocked {
			if err := s.validator.ValidateForTransition(ctx, tx, periodID); err != nil {
				return err
			}
		}

		period.Status = newStatus
		period.UpdatedAt = s.clock.Now()
		return tx.Model(&perioddomain.Period{}).
			Where("id = ?", periodID).
			Updates(map[string]any{"status": newStatus, "updated_at": period.UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}

	if flag, err := s.tracker.Get(ctx, periodID); err == nil && flag != nil && flag.Dirty {
		s.log.Warn("period transitioned with stale derived targets",
			zap.String("period_id", periodID.String()),
			zap.String("status", string(newStatus)),
			zap.String("reason", flag.Reason),
		)
	}

	weeks, err := s.weeks(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, period, weeks)
}

func (s *Service) load(ctx context.Context, tx *gorm.DB, periodID snowflake.ID) (*perioddomain.Period, error) {
	var period perioddomain.Period
	if err := tx.WithContext(ctx).Where("id = ?", periodID).Limit(1).Find(&period).Error; err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, perioddomain.ErrPeriodNotFound
	}
	return &period, nil
}

func (s *Service) weeks(ctx context.Context, periodID snowflake.ID) ([]*perioddomain.Week, error) {
	var weeks []*perioddomain.Week
	err := s.db.WithContext(ctx).Where("period_id = ?", periodID).Order("seq ASC").Find(&weeks).Error
	return weeks, err
}

func (s *Service) respond(ctx context.Context, period *perioddomain.Period, weeks []*perioddomain.Week) (*perioddomain.PeriodResponse, error) {
	flag, err := s.tracker.Get(ctx, period.ID)
	if err != nil {
		return nil, err
	}
	return &perioddomain.PeriodResponse{
		Period: *period,
		Weeks:  weeks,
		Recalc: flag,
	}, nil
}
