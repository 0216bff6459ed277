package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Recompute rederives every UserWeekTarget row for the period inside
	// a single transaction and returns the run identifier stamped on the
	// cleared recalc flag.
	Recompute(ctx context.Context, periodID snowflake.ID) (string, error)
	ListTargets(ctx context.Context, periodID snowflake.ID) ([]*UserWeekTarget, error)
}

var (
	ErrPeriodLocked  = errors.New("period_locked")
	ErrNoWeeks       = errors.New("no_weeks")
	ErrRecomputeBusy = errors.New("recompute_busy")
)
