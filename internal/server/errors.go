package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	compliancedomain "github.com/cazfleet/accounts/internal/compliance/domain"
	vehicledomain "github.com/cazfleet/accounts/internal/vehicle/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware converts errors recorded on the gin context into a
// single JSON error response after the handler chain has run.
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
	var svcErr *compliancedomain.ServiceError
	if errors.As(err, &svcErr) {
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "compliance service unavailable",
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, vehicledomain.ErrInvalidVRN),
		errors.Is(err, vehicledomain.ErrInvalidDirection),
		errors.Is(err, vehicledomain.ErrPageOutOfBounds):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, vehicledomain.ErrAccountNotFound),
		errors.Is(err, vehicledomain.ErrVehicleNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, vehicledomain.ErrVehicleAlreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
