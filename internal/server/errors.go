package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	"github.com/quillhq/quill/internal/metering/metric"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrInternal       = errors.New("internal_error")
)

const planLimitMessage = "you have reached your plan limit; upgrade to continue"

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, contentdomain.ErrPlanLimitReached):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "plan_limit_reached",
			Message: planLimitMessage,
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, userdomain.ErrDuplicateEmail),
		errors.Is(err, tierdomain.ErrDuplicateTier):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, tierdomain.ErrNoActiveTier):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, metric.ErrUnknownMetric),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, tierdomain.ErrInvalidTierCode),
		errors.Is(err, tierdomain.ErrInvalidTierName),
		errors.Is(err, tierdomain.ErrInvalidQuota),
		errors.Is(err, usagedomain.ErrInvalidCount),
		errors.Is(err, contentdomain.ErrInvalidTitle),
		errors.Is(err, contentdomain.ErrInvalidURL),
		errors.Is(err, contentdomain.ErrInvalidCollection):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, tierdomain.ErrTierNotFound),
		errors.Is(err, contentdomain.ErrEntityNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
