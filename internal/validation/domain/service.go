// Package domain defines the invariant validator for percentage-based
// period configuration.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Hundred is the required total for a complete distribution or role-weight
// set; Tolerance absorbs fixed-point rounding at publish/lock time.
var (
	Hundred   = decimal.RequireFromString("100.00")
	Tolerance = decimal.RequireFromString("0.01")
)

const (
	ScopeDistribution = "weekly_distribution"
	ScopeRoleWeights  = "weekly_role_weights"
)

var (
	// ErrOverAllocated rejects a write that would push a scope's sum past 100.
	ErrOverAllocated = errors.New("over_allocated")
	// ErrSumMismatch blocks a publish/lock transition while a scope's sum is not 100.
	ErrSumMismatch = errors.New("sum_mismatch")
)

// ValidationError identifies the scope whose percentages violate an invariant.
type ValidationError struct {
	Scope    string          `json:"scope"`
	PeriodID snowflake.ID    `json:"period_id"`
	WeekID   snowflake.ID    `json:"week_id,omitempty"`
	Role     string          `json:"role,omitempty"`
	Sum      decimal.Decimal `json:"sum"`

	err error
}

func NewValidationError(err error, scope string, periodID, weekID snowflake.ID, role string, sum decimal.Decimal) *ValidationError {
	return &ValidationError{
		Scope:    scope,
		PeriodID: periodID,
		WeekID:   weekID,
		Role:     role,
		Sum:      sum,
		err:      err,
	}
}

func (e *ValidationError) Error() string {
	if e.WeekID != 0 {
		return fmt.Sprintf("%s: %s sums to %s for week %s", e.err, e.Scope, e.Sum, e.WeekID)
	}
	return fmt.Sprintf("%s: %s sums to %s", e.err, e.Scope, e.Sum)
}

func (e *ValidationError) Unwrap() error { return e.err }

// Service checks configuration consistency at write time (strict upper
// bound) and at status-transition time (exact total). The tx variants run
// on the caller's transaction so a racing write cannot slip past the check.
type Service interface {
	ValidateDistribution(ctx context.Context, periodID snowflake.ID) error
	ValidateRoleWeights(ctx context.Context, periodID, weekID snowflake.ID) error

	CheckDistributionWrite(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID, percent decimal.Decimal) error
	CheckRoleWeightWrite(ctx context.Context, tx *gorm.DB, periodID, weekID snowflake.ID, role string, percent decimal.Decimal) error
	ValidateForTransition(ctx context.Context, tx *gorm.DB, periodID snowflake.ID) error
}
