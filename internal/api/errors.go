package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"supply_go/internal/domain"

	"github.com/gin-gonic/gin"
)

// Error codes that are not order error kinds.
const (
	CodeMissingIdentity = "MISSING_IDENTITY"
	CodeInvalidAccount  = "INVALID_ACCOUNT"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnavailable     = "UNAVAILABLE"
	CodeTimeout         = "TIMEOUT"
	CodeInternal        = "INTERNAL"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Requested *uint32 `json:"requested,omitempty"`
	Available *uint32 `json:"available,omitempty"`
}

// statusOf maps an error to its HTTP status and wire code.
func statusOf(err error) (int, string) {
	if kind, ok := domain.KindOf(err); ok {
		if kind == domain.KindZeroQuantity {
			return http.StatusBadRequest, kind.Code()
		}
		return http.StatusConflict, kind.Code()
	}
	switch {
	case errors.Is(err, domain.ErrMissingIdentity):
		return http.StatusUnauthorized, CodeMissingIdentity
	case errors.Is(err, domain.ErrInvalidAccount):
		return http.StatusBadRequest, CodeInvalidAccount
	case errors.Is(err, domain.ErrSequencerStopped):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	resp := ErrorResponse{Code: code, Message: err.Error()}

	var oe *domain.OrderError
	if errors.As(err, &oe) && oe.Kind != domain.KindZeroQuantity {
		requested, available := oe.Requested, oe.Available
		resp.Requested = &requested
		resp.Available = &available
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, resp)
}
