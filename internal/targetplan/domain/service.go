package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	SetMonthlyTarget(ctx context.Context, req SetMonthlyTargetRequest) (*MonthlyTarget, error)
	SetWeeklyDistribution(ctx context.Context, req SetWeeklyDistributionRequest) (*WeeklyDistribution, error)
	SetWeeklyRoleWeight(ctx context.Context, req SetWeeklyRoleWeightRequest) (*WeeklyRoleWeight, error)
	GetPlan(ctx context.Context, periodID snowflake.ID) (*Plan, error)
}

type SetMonthlyTargetRequest struct {
	PeriodID   snowflake.ID
	CategoryID snowflake.ID
	Amount     decimal.Decimal
}

type SetWeeklyDistributionRequest struct {
	PeriodID snowflake.ID
	WeekID   snowflake.ID
	Percent  decimal.Decimal
}

type SetWeeklyRoleWeightRequest struct {
	PeriodID snowflake.ID
	WeekID   snowflake.ID
	Role     string
	Percent  decimal.Decimal
}

// Plan is the full target configuration of a period.
type Plan struct {
	Targets       []*MonthlyTarget      `json:"targets"`
	Distributions []*WeeklyDistribution `json:"distributions"`
	RoleWeights   []*WeeklyRoleWeight   `json:"role_weights"`
}

var (
	ErrNegativeAmount  = errors.New("negative_amount")
	ErrInvalidPercent  = errors.New("invalid_percent")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrWeekNotFound    = errors.New("week_not_found")
	ErrCategoryUnknown = errors.New("category_unknown")
	ErrPeriodFrozen    = errors.New("period_frozen")
)
