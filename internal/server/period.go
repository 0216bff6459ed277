package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
)

type createPeriodRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type transitionPeriodRequest struct {
	Status string `json:"status"`
}

type validatePeriodRequest struct {
	Scope  string `json:"scope"`
	WeekID string `json:"week_id,omitempty"`
}

func (s *Server) CreatePeriod(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.periodSvc.Create(c.Request.Context(), perioddomain.CreatePeriodRequest{
		ShopID: shopID,
		Year:   req.Year,
		Month:  req.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPeriod(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.periodSvc.GetByID(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionPeriod(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req transitionPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.periodSvc.Transition(c.Request.Context(), periodID, perioddomain.PeriodStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ValidatePeriod runs the invariant checks on demand so callers can see
// whether a period would survive a publish/lock transition.
func (s *Server) ValidatePeriod(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req validatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	switch strings.TrimSpace(req.Scope) {
	case validationdomain.ScopeDistribution:
		err = s.validationSvc.ValidateDistribution(c.Request.Context(), periodID)
	case validationdomain.ScopeRoleWeights:
		weekID, parseErr := parseSnowflakeParam(req.WeekID, "week_id")
		if parseErr != nil {
			AbortWithError(c, parseErr)
			return
		}
		err = s.validationSvc.ValidateRoleWeights(c.Request.Context(), periodID, weekID)
	default:
		AbortWithError(c, newValidationError("scope", "invalid_scope", "invalid scope"))
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"valid": true}})
}
