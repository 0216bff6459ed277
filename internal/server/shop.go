package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
)

type createShopRequest struct {
	Name         string `json:"name"`
	TimezoneName string `json:"timezone_name"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type updateMemberRequest struct {
	Role   *string `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

func (s *Server) CreateShop(c *gin.Context) {
	var req createShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shopSvc.Create(c.Request.Context(), shopdomain.CreateShopRequest{
		Name:         strings.TrimSpace(req.Name),
		TimezoneName: strings.TrimSpace(req.TimezoneName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetShop(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.shopSvc.GetByID(c.Request.Context(), shopID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddMember(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseSnowflakeParam(req.UserID, "user_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.shopSvc.AddMember(c.Request.Context(), shopdomain.AddMemberRequest{
		ShopID: shopID,
		UserID: userID,
		Role:   strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateMember(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	memberID, err := parseSnowflakeParam(c.Param("member_id"), "member_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shopSvc.UpdateMember(c.Request.Context(), shopdomain.UpdateMemberRequest{
		ShopID:   shopID,
		MemberID: memberID,
		Role:     trimStringPtr(req.Role),
		Active:   req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMembers(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.shopSvc.ListMembers(c.Request.Context(), shopID, activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCategory(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shopSvc.CreateCategory(c.Request.Context(), shopdomain.CreateCategoryRequest{
		ShopID: shopID,
		Name:   strings.TrimSpace(req.Name),
		Unit:   strings.TrimSpace(req.Unit),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCategories(c *gin.Context) {
	shopID, err := parseSnowflakeParam(c.Param("shop_id"), "shop_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.shopSvc.ListCategories(c.Request.Context(), shopID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func trimStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
