package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
)

type setMonthlyTargetRequest struct {
	Amount string `json:"amount"`
}

type setPercentRequest struct {
	Percent string `json:"percent"`
}

func (s *Server) SetMonthlyTarget(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	categoryID, err := parseSnowflakeParam(c.Param("category_id"), "category_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setMonthlyTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	amount, err := parseDecimalField(req.Amount, "amount")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.targetPlanSvc.SetMonthlyTarget(c.Request.Context(), targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   periodID,
		CategoryID: categoryID,
		Amount:     amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetWeeklyDistribution(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	weekID, err := parseSnowflakeParam(c.Param("week_id"), "week_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setPercentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	percent, err := parseDecimalField(req.Percent, "percent")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.targetPlanSvc.SetWeeklyDistribution(c.Request.Context(), targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: periodID,
		WeekID:   weekID,
		Percent:  percent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetWeeklyRoleWeight(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	weekID, err := parseSnowflakeParam(c.Param("week_id"), "week_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setPercentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	percent, err := parseDecimalField(req.Percent, "percent")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.targetPlanSvc.SetWeeklyRoleWeight(c.Request.Context(), targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: periodID,
		WeekID:   weekID,
		Role:     strings.TrimSpace(c.Param("role")),
		Percent:  percent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlan(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.targetPlanSvc.GetPlan(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
