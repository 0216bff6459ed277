package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	leaderboarddomain "github.com/smallbiznis/scoreline/internal/leaderboard/domain"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"github.com/smallbiznis/scoreline/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string                            `json:"type"`
	Message string                            `json:"message"`
	Errors  []ValidationError                 `json:"errors,omitempty"`
	Scope   *validationdomain.ValidationError `json:"scope,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if scopeErr := asInvariantViolation(err); scopeErr != nil {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invariant_violation",
			Message: scopeErr.Error(),
			Scope:   scopeErr,
		}
	}

	switch {
	case isInvalidInputError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func asInvariantViolation(err error) *validationdomain.ValidationError {
	var vErr *validationdomain.ValidationError
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isInvalidInputError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, shopdomain.ErrInvalidName),
		errors.Is(err, shopdomain.ErrInvalidRole),
		errors.Is(err, shopdomain.ErrInvalidUnit),
		errors.Is(err, perioddomain.ErrInvalidYear),
		errors.Is(err, perioddomain.ErrInvalidMonth),
		errors.Is(err, targetplandomain.ErrNegativeAmount),
		errors.Is(err, targetplandomain.ErrInvalidPercent),
		errors.Is(err, targetplandomain.ErrInvalidRole),
		errors.Is(err, targetplandomain.ErrCategoryUnknown),
		errors.Is(err, achievementdomain.ErrInvalidValue),
		errors.Is(err, achievementdomain.ErrInvalidDate),
		errors.Is(err, achievementdomain.ErrInvalidSource),
		errors.Is(err, achievementdomain.ErrMemberUnknown),
		errors.Is(err, achievementdomain.ErrCategoryUnknown):
		return true
	default:
		return false
	}
}

// isUnprocessableError covers requests that are well-formed but rejected
// by the engine's state rules: validation sums and frozen/lockable
// period states.
func isUnprocessableError(err error) bool {
	switch {
	case errors.Is(err, validationdomain.ErrOverAllocated),
		errors.Is(err, validationdomain.ErrSumMismatch),
		errors.Is(err, perioddomain.ErrInvalidTransition),
		errors.Is(err, targetplandomain.ErrPeriodFrozen),
		errors.Is(err, allocationdomain.ErrPeriodLocked),
		errors.Is(err, allocationdomain.ErrNoWeeks):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, allocationdomain.ErrRecomputeBusy),
		errors.Is(err, perioddomain.ErrPeriodBusy),
		errors.Is(err, leaderboarddomain.ErrNotComputed),
		errors.Is(err, shopdomain.ErrDuplicateMember),
		errors.Is(err, shopdomain.ErrDuplicateSlug),
		errors.Is(err, shopdomain.ErrDuplicateCategory),
		errors.Is(err, perioddomain.ErrDuplicatePeriod),
		errors.Is(err, achievementdomain.ErrAlreadyCorrected),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	default:
		return db.IsDuplicateKeyErr(err)
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, shopdomain.ErrShopNotFound),
		errors.Is(err, shopdomain.ErrMemberNotFound),
		errors.Is(err, perioddomain.ErrPeriodNotFound),
		errors.Is(err, targetplandomain.ErrWeekNotFound),
		errors.Is(err, achievementdomain.ErrAchievementNotFound),
		errors.Is(err, leaderboarddomain.ErrSnapshotNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger with a coarse error type
// and stable code without rendering internals into the response.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status == http.StatusUnprocessableEntity:
		return "invariant", payload.Type
	default:
		return "request", payload.Type
	}
}
