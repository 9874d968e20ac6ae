// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants and the translation of
// service-layer errors into HTTP responses (via the `fail()` helper). Codes
// give clients a stable, machine-readable taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - All error responses include both an HTTP status and one of these codes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univmarket/go-market-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failFromService translates a service error into the HTTP envelope: missing
// entities map to 404, ownership breaches to 403, illegal lifecycle
// transitions to 409, malformed input to 400, and anything else to 500.
func failFromService(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case services.IsForbidden(err):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case services.IsInvalidState(err):
		fail(c, http.StatusConflict, ErrCodeInvalidState, err.Error())
	case services.IsValidation(err):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
