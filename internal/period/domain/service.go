package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
)

type Service interface {
	Create(ctx context.Context, req CreatePeriodRequest) (*PeriodResponse, error)
	GetByID(ctx context.Context, periodID snowflake.ID) (*PeriodResponse, error)
	Transition(ctx context.Context, periodID snowflake.ID, newStatus PeriodStatus) (*PeriodResponse, error)
}

type CreatePeriodRequest struct {
	ShopID snowflake.ID
	Year   int
	Month  int
}

// PeriodResponse carries the period, its weeks and the staleness of its
// derived targets.
type PeriodResponse struct {
	Period Period                   `json:"period"`
	Weeks  []*Week                  `json:"weeks"`
	Recalc *recalcdomain.RecalcFlag `json:"recalc,omitempty"`
}

var (
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrInvalidYear       = errors.New("invalid_year")
	ErrPeriodNotFound    = errors.New("period_not_found")
	ErrDuplicatePeriod   = errors.New("duplicate_period")
	ErrInvalidTransition = errors.New("invalid_transition")
	// ErrPeriodBusy is returned when the period row is held by a
	// concurrent recompute or transition; callers may retry.
	ErrPeriodBusy = errors.New("period_busy")
)
