package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
)

type createTierRequest struct {
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Quotas       map[string]int64 `json:"quotas"`
	Features     []string         `json:"features"`
	Active       *bool            `json:"active"`
	DisplayOrder int              `json:"display_order"`
}

type updateTierRequest struct {
	Name         *string           `json:"name,omitempty"`
	Quotas       *map[string]int64 `json:"quotas,omitempty"`
	Features     *[]string         `json:"features,omitempty"`
	Active       *bool             `json:"active,omitempty"`
	DisplayOrder *int              `json:"display_order,omitempty"`
}

func (s *Server) ListTiers(c *gin.Context) {
	tiers, err := s.tiersvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tiers})
}

func (s *Server) CreateTier(c *gin.Context) {
	var req createTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tier, err := s.tiersvc.Create(c.Request.Context(), tierdomain.CreateTierRequest{
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Quotas:       req.Quotas,
		Features:     req.Features,
		Active:       req.Active,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tier})
}

func (s *Server) UpdateTier(c *gin.Context) {
	var req updateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tier, err := s.tiersvc.Update(c.Request.Context(), tierdomain.UpdateTierRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         req.Name,
		Quotas:       req.Quotas,
		Features:     req.Features,
		Active:       req.Active,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tier})
}
