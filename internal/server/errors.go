package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain sentinels accumulated on the gin
// context to HTTP statuses with a uniform payload.
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
	switch {
	case errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, broadcastdomain.ErrSlotNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, orderdomain.ErrPreconditionFailed),
		errors.Is(err, orderdomain.ErrActiveOrderExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "operation conflicts with current state",
		}
	case errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, orderdomain.ErrInvalidState),
		errors.Is(err, accountdomain.ErrInvalidType),
		errors.Is(err, accountdomain.ErrInvalidNumber),
		errors.Is(err, accountdomain.ErrInvalidName),
		errors.Is(err, accountdomain.ErrInvalidBalance),
		errors.Is(err, accountdomain.ErrEmptyPatch),
		errors.Is(err, broadcastdomain.ErrSlotOutOfRange),
		errors.Is(err, broadcastdomain.ErrInvalidTime),
		errors.Is(err, broadcastdomain.ErrEmptyMessage),
		errors.Is(err, ledgerdomain.ErrUnknownCategory),
		errors.Is(err, ledgerdomain.ErrInvalidDelta):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
