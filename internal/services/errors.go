// Package services defines the business logic for presence, meeting
// proposals, profiles, bot keys, check-ins and waves. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Validation errors.
var (
	// ErrMissingIdempotencyKey is returned when propose is called without a key.
	ErrMissingIdempotencyKey = errors.New("idempotency_key required")

	// ErrMissingStation is returned when a station id is required but empty.
	ErrMissingStation = errors.New("station_id required")

	// ErrUnknownStation is returned for station ids that are not on the line.
	ErrUnknownStation = errors.New("unknown station")

	// ErrInvalidDirection is returned for directions other than north/south.
	ErrInvalidDirection = errors.New("direction must be north or south")

	// ErrMissingTarget is returned when a proposal or wave has no recipient.
	ErrMissingTarget = errors.New("target user required")

	// ErrSelfTarget is returned when a user waves at themselves.
	ErrSelfTarget = errors.New("cannot target yourself")

	// ErrMissingMatchID is returned when respond is called without a match id.
	ErrMissingMatchID = errors.New("match_id required")

	// ErrInvalidProfile is returned when a profile update breaks a field rule.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrMessageTooLong is returned when a wave message exceeds its limit.
	ErrMessageTooLong = errors.New("message too long")
)

// Lookup and state errors.
var (
	// ErrMatchNotFound indicates that the referenced proposal does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNotMatchTarget is returned when someone other than the proposal's
	// target tries to respond to it.
	ErrNotMatchTarget = errors.New("not authorized to respond to this match")

	// ErrMatchClosed is returned when responding to an expired proposal.
	ErrMatchClosed = errors.New("match has expired")

	// ErrSessionNotFound is returned by heartbeat when the user never registered
	// or the session was swept as stale.
	ErrSessionNotFound = errors.New("session not found")

	// ErrProfileNotFound indicates that the user has no profile yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrAPIKeyNotFound indicates that the key does not exist or is not owned
	// by the caller.
	ErrAPIKeyNotFound = errors.New("api key not found")
)
