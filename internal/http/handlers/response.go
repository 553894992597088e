// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the error
// envelope, the mapping from service errors to statuses and codes, and small
// success writers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/http/middleware"
	"github.com/tbourn/ltrain-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"match not found"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: middleware.RequestIDFrom(c),
	})
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// serviceErrors maps service sentinels to their HTTP representation.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrMissingIdempotencyKey, http.StatusBadRequest, ErrCodeMissingIdempotency},
	{services.ErrMissingStation, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrUnknownStation, http.StatusBadRequest, ErrCodeUnknownStation},
	{services.ErrInvalidDirection, http.StatusBadRequest, ErrCodeInvalidDirection},
	{services.ErrMissingTarget, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrSelfTarget, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrMissingMatchID, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidProfile, http.StatusBadRequest, ErrCodeInvalidProfile},
	{services.ErrMessageTooLong, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrNotMatchTarget, http.StatusForbidden, ErrCodeNotMatchTarget},
	{services.ErrMatchNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrSessionNotFound, http.StatusNotFound, ErrCodeSessionNotFound},
	{services.ErrProfileNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrAPIKeyNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrMatchClosed, http.StatusConflict, ErrCodeMatchClosed},
}

// failErr answers with the status and code registered for err, or a 500 that
// hides err's text from the client.
func failErr(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			fail(c, m.status, m.code, m.err.Error())
			return
		}
	}
	_ = c.Error(err)
	middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
