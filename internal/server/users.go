package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	userdomain "github.com/quillhq/quill/internal/user/domain"
)

type registerUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	TierID      string `json:"tier_id"`
}

func (s *Server) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.usersvc.Register(c.Request.Context(), userdomain.RegisterRequest{
		Email:       strings.TrimSpace(req.Email),
		DisplayName: strings.TrimSpace(req.DisplayName),
		TierID:      strings.TrimSpace(req.TierID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) GetUserByID(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.usersvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) pathUserID(c *gin.Context) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(c.Param("id")))
}
