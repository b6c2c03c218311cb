package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillhq/quill/internal/metering/metric"
)

func (s *Server) GetUsageSummary(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.summarysvc.Summarize(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// CheckAdmission is a dry-run admission check; it never consumes quota.
func (s *Server) CheckAdmission(c *gin.Context) {
	userID, err := s.pathUserID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	m, err := metric.Parse(c.Query("metric"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	n := int64(1)
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		n = parsed
	}

	decision := s.admissionsvc.CanPerform(c.Request.Context(), userID, m, n)
	c.JSON(http.StatusOK, gin.H{"data": decision})
}
