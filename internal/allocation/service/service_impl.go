package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	"github.com/smallbiznis/scoreline/internal/clock"
	obsmetrics "github.com/smallbiznis/scoreline/internal/observability/metrics"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
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

	tracker recalcdomain.Tracker
	metrics *obsmetrics.EngineMetrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Tracker recalcdomain.Tracker
	Metrics *obsmetrics.EngineMetrics `optional:"true"`
}

func NewService(p ServiceParam) allocationdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("allocation.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		tracker: p.Tracker,
		metrics: p.Metrics,
	}
}

// Recompute rederives the period's UserWeekTarget set. The whole run is
// one transaction guarded by a row lock on the period, so concurrent
// recomputes and configuration writes for the same period serialize;
// a contended lock surfaces as the retryable ErrRecomputeBusy.
func (s *Service) Recompute(ctx context.Context, periodID snowflake.ID) (string, error) {
	started := time.Now()
	runID := ulid.Make().String()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var period perioddomain.Period
		if err := db.LockForUpdate(tx).WithContext(ctx).Where("id = ?", periodID).Limit(1).Find(&period).Error; err != nil {
			if db.IsLockNotAvailableErr(err) {
				return allocationdomain.ErrRecomputeBusy
			}
			return err
		}
		if period.ID == 0 {
			return perioddomain.ErrPeriodNotFound
		}
		if !period.Status.Editable() {
			return allocationdomain.ErrPeriodLocked
		}

		inputs, err := s.loadInputs(ctx, tx, &period)
		if err != nil {
			return err
		}

		rows := s.allocate(periodID, inputs)

		// Replace-not-append: the previous derived set goes away in the
		// same transaction that writes its successor.
		if err := tx.Where("period_id = ?", periodID).Delete(&allocationdomain.UserWeekTarget{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(rows).Error; err != nil {
				return err
			}
		}

		return s.tracker.Clear(ctx, tx, periodID, runID)
	})

	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveRecompute("error", elapsed)
		return "", err
	}
	s.metrics.ObserveRecompute("ok", elapsed)

	s.log.Info("recompute finished",
		zap.String("period_id", periodID.String()),
		zap.String("run_id", runID),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return runID, nil
}

func (s *Service) ListTargets(ctx context.Context, periodID snowflake.ID) ([]*allocationdomain.UserWeekTarget, error) {
	var rows []*allocationdomain.UserWeekTarget
	err := s.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("week_id ASC, category_id ASC, user_id ASC").
		Find(&rows).Error
	return rows, err
}

type allocationInputs struct {
	weeks         []*perioddomain.Week
	targets       []*targetplandomain.MonthlyTarget
	distributions map[snowflake.ID]decimal.Decimal // week -> percent
	roleWeights   map[snowflake.ID][]roleWeight    // week -> weights, role asc
	membersByRole map[string][]snowflake.ID        // role -> user ids, ascending
}

type roleWeight struct {
	role    string
	percent decimal.Decimal
}

func (s *Service) loadInputs(ctx context.Context, tx *gorm.DB, period *perioddomain.Period) (*allocationInputs, error) {
	inputs := &allocationInputs{
		distributions: make(map[snowflake.ID]decimal.Decimal),
		roleWeights:   make(map[snowflake.ID][]roleWeight),
		membersByRole: make(map[string][]snowflake.ID),
	}

	if err := tx.WithContext(ctx).Where("period_id = ?", period.ID).Order("seq ASC").Find(&inputs.weeks).Error; err != nil {
		return nil, err
	}
	if len(inputs.weeks) == 0 {
		return nil, allocationdomain.ErrNoWeeks
	}

	if err := tx.WithContext(ctx).Where("period_id = ?", period.ID).Order("category_id ASC").Find(&inputs.targets).Error; err != nil {
		return nil, err
	}

	var dists []*targetplandomain.WeeklyDistribution
	if err := tx.WithContext(ctx).Where("period_id = ?", period.ID).Find(&dists).Error; err != nil {
		return nil, err
	}
	distSum := decimal.Zero
	for _, dist := range dists {
		inputs.distributions[dist.WeekID] = dist.Percent
		distSum = distSum.Add(dist.Percent)
	}
	if distSum.GreaterThan(validationdomain.Hundred) {
		return nil, validationdomain.NewValidationError(
			validationdomain.ErrOverAllocated,
			validationdomain.ScopeDistribution,
			period.ID, 0, "", distSum,
		)
	}

	var weights []*targetplandomain.WeeklyRoleWeight
	if err := tx.WithContext(ctx).Where("period_id = ?", period.ID).Order("week_id ASC, role ASC").Find(&weights).Error; err != nil {
		return nil, err
	}
	weekSums := make(map[snowflake.ID]decimal.Decimal)
	for _, weight := range weights {
		inputs.roleWeights[weight.WeekID] = append(inputs.roleWeights[weight.WeekID], roleWeight{
			role:    weight.Role,
			percent: weight.Percent,
		})
		weekSums[weight.WeekID] = weekSums[weight.WeekID].Add(weight.Percent)
	}
	for weekID, sum := range weekSums {
		if sum.GreaterThan(validationdomain.Hundred) {
			return nil, validationdomain.NewValidationError(
				validationdomain.ErrOverAllocated,
				validationdomain.ScopeRoleWeights,
				period.ID, weekID, "", sum,
			)
		}
	}

	var members []*shopdomain.ShopMember
	if err := tx.WithContext(ctx).
		Where("shop_id = ? AND active = ?", period.ShopID, true).
		Order("user_id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	for _, member := range members {
		inputs.membersByRole[member.Role] = append(inputs.membersByRole[member.Role], member.UserID)
	}

	return inputs, nil
}

// allocate turns monthly targets into per-user weekly shares. Intermediate
// values keep full decimal precision; rounding happens once, when a role
// target is quantized to cents for the per-member split. The remainder
// cents go to the members first in canonical order: ascending user ID.
func (s *Service) allocate(periodID snowflake.ID, inputs *allocationInputs) []*allocationdomain.UserWeekTarget {
	// user -> week -> category -> cents
	shares := make(map[snowflake.ID]map[snowflake.ID]map[snowflake.ID]int64)

	for _, target := range inputs.targets {
		for _, week := range inputs.weeks {
			distPercent, ok := inputs.distributions[week.ID]
			if !ok {
				continue
			}
			weeklyTarget := target.Amount.Mul(distPercent).Div(validationdomain.Hundred)

			for _, weight := range inputs.roleWeights[week.ID] {
				roleTarget := weeklyTarget.Mul(weight.percent).Div(validationdomain.Hundred)
				users := inputs.membersByRole[weight.role]
				if len(users) == 0 {
					s.log.Warn("role target unallocated: no active members",
						zap.String("period_id", periodID.String()),
						zap.String("week_id", week.ID.String()),
						zap.String("role", weight.role),
						zap.String("category_id", target.CategoryID.String()),
						zap.String("amount", roleTarget.Round(2).StringFixed(2)),
					)
					s.metrics.RecordUnallocatedTarget()
					continue
				}

				cents := roleTarget.Round(2).Shift(2).IntPart()
				n := int64(len(users))
				base := cents / n
				remainder := cents % n

				for i, userID := range users {
					share := base
					if int64(i) < remainder {
						share++
					}
					if shares[userID] == nil {
						shares[userID] = make(map[snowflake.ID]map[snowflake.ID]int64)
					}
					if shares[userID][week.ID] == nil {
						shares[userID][week.ID] = make(map[snowflake.ID]int64)
					}
					shares[userID][week.ID][target.CategoryID] += share
				}
			}
		}
	}

	var rows []*allocationdomain.UserWeekTarget
	for userID, byWeek := range shares {
		for weekID, byCategory := range byWeek {
			for categoryID, cents := range byCategory {
				rows = append(rows, &allocationdomain.UserWeekTarget{
					ID:         s.genID.Generate(),
					PeriodID:   periodID,
					WeekID:     weekID,
					UserID:     userID,
					CategoryID: categoryID,
					Amount:     decimal.New(cents, -2),
				})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeekID != rows[j].WeekID {
			return rows[i].WeekID < rows[j].WeekID
		}
		if rows[i].CategoryID != rows[j].CategoryID {
			return rows[i].CategoryID < rows[j].CategoryID
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}
