package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	"github.com/quillhq/quill/pkg/db/pagination"
)

func (s *Server) CreatePrompt(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	prompt, err := s.contentsvc.CreatePrompt(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": prompt})
}

func (s *Server) ListPrompts(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.contentsvc.ListPrompts(c.Request.Context(), contentdomain.ListPromptsRequest{
		UserID:     userID,
		Pagination: page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateNote(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	note, err := s.contentsvc.CreateNote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": note})
}

func (s *Server) CreateBookmark(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	bookmark, err := s.contentsvc.CreateBookmark(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": bookmark})
}

func (s *Server) CreateDocument(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	document, err := s.contentsvc.CreateDocument(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": document})
}

func (s *Server) CreateVideo(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	video, err := s.contentsvc.CreateVideo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": video})
}

func (s *Server) CreateCategory(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req contentdomain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.UserID = userID

	category, err := s.contentsvc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": category})
}

func (s *Server) DeleteEntity(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entityID, err := snowflake.ParseString(strings.TrimSpace(c.Param("entityId")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	collection := strings.TrimSpace(c.Param("collection"))
	if err := s.contentsvc.Delete(c.Request.Context(), userID, collection, entityID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
