package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	"github.com/quillhq/quill/internal/metering/metric"
	"go.uber.org/zap"
)

type createGenerationRequest struct {
	Prompt string `json:"prompt"`
}

type generationResponse struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGeneration meters an AI generation request. The generation itself
// runs elsewhere; this endpoint owns admission and accounting: check,
// accept, increment, evaluate thresholds.
func (s *Server) CreateGeneration(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	decision := s.admissionsvc.CanPerform(c.Request.Context(), userID, metric.AIGeneration, 1)
	if !decision.Allowed {
		AbortWithError(c, contentdomain.ErrPlanLimitReached)
		return
	}

	if err := s.usagesvc.Increment(c.Request.Context(), userID, metric.AIGeneration, 1); err != nil {
		// The generation was admitted; losing one count is preferable to
		// failing the request after acceptance.
		s.log.Warn("generation usage increment failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
	s.notifysvc.Notify(c.Request.Context(), userID, metric.AIGeneration)

	c.JSON(http.StatusAccepted, gin.H{"data": generationResponse{
		ID:        s.genID.Generate().String(),
		Prompt:    prompt,
		Status:    "queued",
		CreatedAt: time.Now().UTC(),
	}})
}
