package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(p ServiceParam) validationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("validation.service"),
	}
}

func (s *Service) ValidateDistribution(ctx context.Context, periodID snowflake.ID) error {
	sum, err := s.distributionSum(ctx, s.db, periodID, 0)
	if err != nil {
		return err
	}
	if sum.GreaterThan(validationdomain.Hundred) {
		return validationdomain.NewValidationError(
			validationdomain.ErrOverAllocated,
			validationdomain.ScopeDistribution,
			periodID, 0, "", sum,
		)
	}
	return nil
}

func (s *Service) ValidateRoleWeights(ctx context.Context, periodID, weekID snowflake.ID) error {
	sum, err := s.roleWeightSum(ctx, s.db, periodID, weekID, "")
	if err != nil {
		return err
	}
	if sum.GreaterThan(validationdomain.Hundred) {
		return validationdomain.NewValidationError(
			validationdomain.ErrOverAllocated,
			validationdomain.ScopeRoleWeights,
			periodID, weekID, "", sum,
		)
	}
	return nil
}

// CheckDistributionWrite rejects a write that would push the period's
// distribution total past 100. The sum excludes the week being written
// and adds its proposed percentage.
func (s *Service) CheckDistributionWrite(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID, percent decimal.Decimal) error {
	others, err := s.distributionSum(ctx, tx, periodID, weekID)
	if err != nil {
		return err
	}
	next := others.Add(percent)
	if next.GreaterThan(validationdomain.Hundred) {
		return validationdomain.NewValidationError(
			validationdomain.ErrOverAllocated,
			validationdomain.ScopeDistribution,
			periodID, weekID, "", next,
		)
	}
	return nil
}

func (s *Service) CheckRoleWeightWrite(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID, role string, percent decimal.Decimal) error {
	others, err := s.roleWeightSum(ctx, tx, periodID, weekID, role)
	if err != nil {
		return err
	}
	next := others.Add(percent)
	if next.GreaterThan(validationdomain.Hundred) {
		return validationdomain.NewValidationError(
			validationdomain.ErrOverAllocated,
			validationdomain.ScopeRoleWeights,
			periodID, weekID, role, next,
		)
	}
	return nil
}

// ValidateForTransition enforces the strict-100 rule required before a
// period may be published or locked: the weekly distribution must total
// 100.00 and every week's role weights must total 100.00, each within
// the fixed tolerance. A period with zero weeks is vacuously valid.
func (s *Service) ValidateForTransition(ctx context.Context, tx *gorm.DB, periodID snowflake.ID) error {
	var weeks []*perioddomain.Week
	if err := tx.WithContext(ctx).Where("period_id = ?", periodID).Order("seq ASC").Find(&weeks).Error; err != nil {
		return err
	}
	if len(weeks) == 0 {
		return nil
	}

	distSum, err := s.distributionSum(ctx, tx, periodID, 0)
	if err != nil {
		return err
	}
	if !withinTolerance(distSum) {
		return validationdomain.NewValidationError(
			validationdomain.ErrSumMismatch,
			validationdomain.ScopeDistribution,
			periodID, 0, "", distSum,
		)
	}

	for _, week := range weeks {
		weekSum, err := s.roleWeightSum(ctx, tx, periodID, week.ID, "")
		if err != nil {
			return err
		}
		if !withinTolerance(weekSum) {
			return validationdomain.NewValidationError(
				validationdomain.ErrSumMismatch,
				validationdomain.ScopeRoleWeights,
				periodID, week.ID, "", weekSum,
			)
		}
	}
	return nil
}

func withinTolerance(sum decimal.Decimal) bool {
	return sum.Sub(validationdomain.Hundred).Abs().LessThanOrEqual(validationdomain.Tolerance)
}

// distributionSum totals distribution percentages for a period, skipping
// excludeWeek when the caller is about to replace that week's entry.
// Decimals are summed in Go so the result is exact on every dialect.
func (s *Service) distributionSum(ctx context.Context, tx *gorm.DB, periodID, excludeWeek snowflake.ID) (decimal.Decimal, error) {
	stmt := tx.WithContext(ctx).Where("period_id = ?", periodID)
	if excludeWeek != 0 {
		stmt = stmt.Where("week_id <> ?", excludeWeek)
	}
	var entries []*targetplandomain.WeeklyDistribution
	if err := stmt.Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Percent)
	}
	return sum, nil
}

func (s *Service) roleWeightSum(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID, excludeRole string) (decimal.Decimal, error) {
	stmt := tx.WithContext(ctx).Where("period_id = ? AND week_id = ?", periodID, weekID)
	if excludeRole != "" {
		stmt = stmt.Where("role <> ?", excludeRole)
	}
	var entries []*targetplandomain.WeeklyRoleWeight
	if err := stmt.Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Percent)
	}
	return sum, nil
}
