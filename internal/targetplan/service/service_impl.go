package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scoreline/internal/clock"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"github.com/smallbiznis/scoreline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func NewService(p ServiceParam) targetplandomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("targetplan.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		validator: p.Validator,
		tracker:   p.Tracker,
	}
}

func (s *Service) SetMonthlyTarget(ctx context.Context, req targetplandomain.SetMonthlyTargetRequest) (*targetplandomain.MonthlyTarget, error) {
	if req.Amount.IsNegative() {
		return nil, targetplandomain.ErrNegativeAmount
	}

	target := targetplandomain.MonthlyTarget{
		ID:         s.genID.Generate(),
		PeriodID:   req.PeriodID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount.Round(2),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		period, err := s.lockEditablePeriod(ctx, tx, req.PeriodID)
		if err != nil {
			return err
		}

		var category shopdomain.Category
		if err := tx.Where("id = ? AND shop_id = ?", req.CategoryID, period.ShopID).Limit(1).Find(&category).Error; err != nil {
			return err
		}
		if category.ID == 0 {
			return targetplandomain.ErrCategoryUnknown
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period_id"}, {Name: "category_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount":     target.Amount,
				"updated_at": s.clock.Now(),
			}),
		}).Create(&target).Error; err != nil {
			return err
		}

		return s.tracker.MarkDirty(ctx, tx, req.PeriodID, "monthly_target_changed")
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// SetWeeklyDistribution writes one week's share of the monthly target.
// The write is rejected outright if it would push the period total past
// 100; a total below 100 is fine while the plan is being edited.
func (s *Service) SetWeeklyDistribution(ctx context.Context, req targetplandomain.SetWeeklyDistributionRequest) (*targetplandomain.WeeklyDistribution, error) {
	if !validPercent(req.Percent) {
		return nil, targetplandomain.ErrInvalidPercent
	}

	entry := targetplandomain.WeeklyDistribution{
		ID:       s.genID.Generate(),
		PeriodID: req.PeriodID,
		WeekID:   req.WeekID,
		Percent:  req.Percent.Round(2),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockEditablePeriod(ctx, tx, req.PeriodID); err != nil {
			return err
		}
		if err := s.requireWeek(ctx, tx, req.PeriodID, req.WeekID); err != nil {
			return err
		}
		if err := s.validator.CheckDistributionWrite(ctx, tx, req.PeriodID, req.WeekID, entry.Percent); err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period_id"}, {Name: "week_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"percent":    entry.Percent,
				"updated_at": s.clock.Now(),
			}),
		}).Create(&entry).Error; err != nil {
			return err
		}

		return s.tracker.MarkDirty(ctx, tx, req.PeriodID, "weekly_distribution_changed")
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) SetWeeklyRoleWeight(ctx context.Context, req targetplandomain.SetWeeklyRoleWeightRequest) (*targetplandomain.WeeklyRoleWeight, error) {
	if !validPercent(req.Percent) {
		return nil, targetplandomain.ErrInvalidPercent
	}
	if !shopdomain.ValidRole(req.Role) {
		return nil, targetplandomain.ErrInvalidRole
	}

	entry := targetplandomain.WeeklyRoleWeight{
		ID:       s.genID.Generate(),
		PeriodID: req.PeriodID,
		WeekID:   req.WeekID,
		Role:     req.Role,
		Percent:  req.Percent.Round(2),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockEditablePeriod(ctx, tx, req.PeriodID); err != nil {
			return err
		}
		if err := s.requireWeek(ctx, tx, req.PeriodID, req.WeekID); err != nil {
			return err
		}
		if err := s.validator.CheckRoleWeightWrite(ctx, tx, req.PeriodID, req.WeekID, req.Role, entry.Percent); err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "period_id"}, {Name: "week_id"}, {Name: "role"}},
			DoUpdates: clause.Assignments(map[string]any{
				"percent":    entry.Percent,
				"updated_at": s.clock.Now(),
			}),
		}).Create(&entry).Error; err != nil {
			return err
		}

		return s.tracker.MarkDirty(ctx, tx, req.PeriodID, "weekly_role_weight_changed")
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) GetPlan(ctx context.Context, periodID snowflake.ID) (*targetplandomain.Plan, error) {
	plan := &targetplandomain.Plan{}
	if err := s.db.WithContext(ctx).Where("period_id = ?", periodID).Order("category_id ASC").Find(&plan.Targets).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("period_id = ?", periodID).Order("week_id ASC").Find(&plan.Distributions).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("period_id = ?", periodID).Order("week_id ASC, role ASC").Find(&plan.RoleWeights).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) lockEditablePeriod(ctx context.Context, tx *gorm.DB, periodID snowflake.ID) (*perioddomain.Period, error) {
	var period perioddomain.Period
	if err := db.LockForUpdate(tx).WithContext(ctx).Where("id = ?", periodID).Limit(1).Find(&period).Error; err != nil {
		if db.IsLockNotAvailableErr(err) {
			return nil, perioddomain.ErrPeriodBusy
		}
		return nil, err
	}
	if period.ID == 0 {
		return nil, perioddomain.ErrPeriodNotFound
	}
	if !period.Status.Editable() {
		return nil, targetplandomain.ErrPeriodFrozen
	}
	return &period, nil
}

func (s *Service) requireWeek(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID) error {
	var week perioddomain.Week
	if err := tx.WithContext(ctx).Where("id = ? AND period_id = ?", weekID, periodID).Limit(1).Find(&week).Error; err != nil {
		return err
	}
	if week.ID == 0 {
		return targetplandomain.ErrWeekNotFound
	}
	return nil
}

func validPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(validationdomain.Hundred)
}
