package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/accounthub/internal/domain/account"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: middlewares.RequestIDFrom(ctx),
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

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message, nil)
}

// respondAccountError maps account sentinels to responses. Anything it does
// not recognise is logged and answered with a bare 500.
func respondAccountError(ctx *gin.Context, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, account.ErrDuplicateIdentity):
		RespondConflict(ctx, "email_taken", "An account with this email already exists")
	case errors.Is(err, account.ErrInvalidAge):
		RespondError(ctx, http.StatusBadRequest, "invalid_age", "Account holder must be at least 18 years old", nil)
	case errors.Is(err, account.ErrNotFound):
		RespondNotFound(ctx, "Account not found")
	case errors.Is(err, account.ErrInvalidValue):
		RespondError(ctx, http.StatusBadRequest, "invalid_value", err.Error(), nil)
	case errors.Is(err, account.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or secret")
	case errors.Is(err, account.ErrAccountInactive):
		RespondForbidden(ctx, "account_inactive", "Account is inactive")
	default:
		log.ErrorContext(ctx.Request.Context(), "account request failed", "op", op, "err", err)
		RespondInternal(ctx, "Something went wrong")
	}
}
