package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Recompute(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	runID, err := s.allocationSvc.Recompute(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"run_id": runID}})
}

func (s *Server) ListUserWeekTargets(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.allocationSvc.ListTargets(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
