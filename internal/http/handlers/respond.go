package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/fleetreg/internal/domain/registration"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondServiceError maps a service error kind to its HTTP status. Causes are logged, never rendered.
func RespondServiceError(ctx *gin.Context, err error) {
	var e *registration.Error
	if !errors.As(err, &e) {
		slog.Default().ErrorContext(ctx.Request.Context(), "http.unexpected_error", "err", err)
		RespondInternal(ctx, "Unexpected error")
		return
	}

	switch e.Kind {
	case registration.KindValidation:
		RespondBadRequest(ctx, e.Message, nil)
	case registration.KindBusinessRule:
		RespondError(ctx, http.StatusBadRequest, "business_rule_violation", e.Message, nil)
	case registration.KindDuplicate:
		RespondError(ctx, http.StatusConflict, "duplicate_plate", e.Message, gin.H{"plate": e.Plate})
	case registration.KindIntegrity:
		RespondConflict(ctx, "data_integrity_violation", e.Message)
	case registration.KindConflict:
		RespondConflict(ctx, "version_conflict", e.Message)
	case registration.KindNotFound:
		RespondNotFound(ctx, e.Message)
	case registration.KindUpstream:
		slog.Default().ErrorContext(ctx.Request.Context(), "http.upstream_error", "registration_id", e.RegistrationID, "err", e.Cause)
		RespondError(ctx, http.StatusInternalServerError, "upstream_service_error", e.Message, nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "http.internal_error", "err", err)
		RespondInternal(ctx, e.Message)
	}
}
