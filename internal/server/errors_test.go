package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorBusyIsRetryableConflict(t *testing.T) {
	// A write racing a FOR UPDATE NOWAIT holder must surface as a 409,
	// not an internal error, so clients know to retry.
	for _, sentinel := range []error{perioddomain.ErrPeriodBusy, allocationdomain.ErrRecomputeBusy} {
		status, payload := mapError(fmt.Errorf("lock period: %w", sentinel))
		assert.Equal(t, http.StatusConflict, status, sentinel.Error())
		assert.Equal(t, "conflict", payload.Type)
		assert.Equal(t, sentinel.Error(), payload.Message)
	}
}

func TestMapErrorSumMismatchIsUnprocessable(t *testing.T) {
	err := validationdomain.NewValidationError(
		validationdomain.ErrSumMismatch,
		validationdomain.ScopeDistribution,
		0, 0, "",
		decimal.RequireFromString("99.00"),
	)
	status, payload := mapError(fmt.Errorf("transition: %w", err))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invariant_violation", payload.Type)
	assert.NotNil(t, payload.Scope)
}

func TestMapErrorUnknownFallsBackToInternal(t *testing.T) {
	status, payload := mapError(errors.New("driver: bad connection"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", payload.Type)
	assert.Equal(t, "internal server error", payload.Message)
}
