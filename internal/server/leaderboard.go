package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type computeSnapshotRequest struct {
	RulesVersion string `json:"rules_version,omitempty"`
}

func (s *Server) ComputeSnapshot(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req computeSnapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.leaderboardSvc.ComputeSnapshot(c.Request.Context(), periodID, strings.TrimSpace(req.RulesVersion))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSnapshots(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.leaderboardSvc.ListSnapshots(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSnapshotRows(c *gin.Context) {
	snapshotID, err := parseSnowflakeParam(c.Param("snapshot_id"), "snapshot_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.leaderboardSvc.GetRows(c.Request.Context(), snapshotID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CurrentLeaderboard(c *gin.Context) {
	periodID, err := parseSnowflakeParam(c.Param("period_id"), "period_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snapshot, rows, err := s.leaderboardSvc.Current(c.Request.Context(), periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"snapshot": snapshot,
		"rows":     rows,
	}})
}
