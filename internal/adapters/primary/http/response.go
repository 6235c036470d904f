// Package http is a thin HTTP primary adapter exposing
// ports.IdentityUseCases over chi. Transport-level concerns beyond
// this illustrative surface (rate limiting, JWKS publication, LDAP
// bind) are named collaborators only.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelid/authcore/internal/core/domain"
)

type errorBody struct {
	Code string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// Error writes a {"error":{"code","message"}} envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeDomainError maps a use-case error to an HTTP status using
// errors.Is/As, drawing the same line between sentinel errors and
// transport status codes at the adapter boundary.
func writeDomainError(w http.ResponseWriter, err error) {
	var valErr *domain.ValidationError
	var delErr *domain.AccountDeletedError

	switch {
	case errors.As(err, &valErr):
		Error(w, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	case errors.As(err, &delErr):
		Error(w, http.StatusGone, "ACCOUNT_DELETED", delErr.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, domain.ErrTotpRequired):
		Error(w, http.StatusUnauthorized, "TOTP_REQUIRED", "a totp code is required")
	case errors.Is(err, domain.ErrInvalidTotpCode), errors.Is(err, domain.ErrInvalidTotpSecret):
		Error(w, http.StatusBadRequest, "INVALID_TOTP", "invalid totp code or secret")
	case errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenExpired):
		Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "refresh token is invalid or expired")
	case errors.Is(err, domain.ErrUserNotFound):
		Error(w, http.StatusNotFound, "NOT_FOUND", "account not found")
	case errors.Is(err, domain.ErrUserExists):
		Error(w, http.StatusConflict, "ALREADY_EXISTS", "an account with that identifier already exists")
	case errors.Is(err, domain.ErrInviteInvalid):
		Error(w, http.StatusBadRequest, "INVITE_INVALID", "invite code invalid or already used")
	case errors.Is(err, domain.ErrSensitiveOpDenied):
		Error(w, http.StatusForbidden, "SENSITIVE_OP_DENIED", "this operation requires a fresh possession factor")
	case errors.Is(err, domain.ErrCrypto):
		slog.Error("crypto operation failed", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	default:
		slog.Error("unhandled use case error", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}
