package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
)

type logAchievementRequest struct {
	UserID     string `json:"user_id"`
	CategoryID string `json:"category_id"`
	AchievedOn string `json:"achieved_on"`
	Value      string `json:"value"`
	Source     string `json:"source,omitempty"`
	Note       string `json:"note,omitempty"`
}

type correctAchievementRequest struct {
	Value string `json:"value"`
	Note  string `json:"note,omitempty"`
}

func (s *Server) LogAchievement(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	actorID, err := actorFromHeader(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req logAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseSnowflakeParam(req.UserID, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	categoryID, err := parseSnowflakeParam(req.CategoryID, "category_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	achievedOn, err := parseOptionalDate(req.AchievedOn)
	if err != nil {
		AbortWithError(c, newValidationError("achieved_on", "invalid_achieved_on", "invalid achieved_on"))
		return
	}
	value, err := parseDecimalField(req.Value, "value")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.achievementSvc.Log(c.Request.Context(), achievementdomain.LogRequest{
		ShopID:     shopID,
		UserID:     userID,
		CategoryID: categoryID,
		AchievedOn: achievedOn,
		Value:      value,
		Source:     strings.TrimSpace(req.Source),
		Note:       strings.TrimSpace(req.Note),
		ActorID:    actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAchievements(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	userID, err := parseOptionalSnowflake(c.Query("user_id"))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}
	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.achievementSvc.List(c.Request.Context(), achievementdomain.ListRequest{
		ShopID: shopID,
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CorrectAchievement(c *gin.Context) {
	achievementID, err := parseSnowflakeParam(c.Param("achievement_id"), "achievement_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	actorID, err := actorFromHeader(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req correctAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	value, err := parseDecimalField(req.Value, "value")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.achievementSvc.Correct(c.Request.Context(), achievementdomain.CorrectRequest{
		AchievementID: achievementID,
		Value:         value,
		Note:          strings.TrimSpace(req.Note),
		ActorID:       actorID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAchievement(c *gin.Context) {
	achievementID, err := parseSnowflakeParam(c.Param("achievement_id"), "achievement_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	actorID, err := actorFromHeader(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.achievementSvc.Delete(c.Request.Context(), achievementID, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

// actorFromHeader resolves the acting user; achievement writes require
// an attributable actor.
func actorFromHeader(c *gin.Context) (snowflake.ID, error) {
	return parseSnowflakeParam(c.GetHeader("X-Actor-Id"), "actor_id")
}
