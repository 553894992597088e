// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes next to the HTTP status and
// a human-readable message. Generic codes mirror the status; the specific ones
// name the rule that was broken so bots can branch on them.
//
// Example response:
//
//	{
//	  "error": "match has expired",
//	  "code": "match_closed",
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeUnknownAction      = "unknown_action"
	ErrCodeMissingIdempotency = "missing_idempotency_key"
	ErrCodeUnknownStation     = "unknown_station"
	ErrCodeInvalidDirection   = "invalid_direction"
	ErrCodeInvalidProfile     = "invalid_profile"
	ErrCodeNotMatchTarget     = "not_match_target"
	ErrCodeMatchClosed        = "match_closed"
	ErrCodeSessionNotFound    = "session_not_found"
	ErrCodeStreamUnsupported  = "stream_unsupported"
)
