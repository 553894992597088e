// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Authenticate, which resolves the Authorization header
// (Bearer session token or Bot API key) to a user and makes the identity
// available to handlers, the rate limiter and the access log.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/auth"
	"github.com/tbourn/ltrain-backend/internal/domain"
)

const (
	ctxKeyUserID   = "userID"
	ctxKeyIdentity = "identity"

	// queryAccessToken carries a bearer token for clients that cannot set
	// headers (EventSource). Only honoured on GET.
	queryAccessToken = "access_token"
)

// Authenticator resolves an Authorization header value.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Identity, error)
}

// ProfileEnsurer creates the caller's profile on first sight.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, userID, email, nickname string) (*domain.Profile, error)
}

// Authenticate rejects unauthenticated requests with 401 and stores the
// caller's identity in the Gin context. When profiles is non-nil the caller's
// profile is created lazily, seeded from the token claims.
func Authenticate(a Authenticator, profiles ProfileEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && c.Request.Method == http.MethodGet {
			if tok := c.Query(queryAccessToken); tok != "" {
				header = "Bearer " + tok
			}
		}

		id, err := a.Authenticate(c.Request.Context(), header)
		if err != nil {
			reason := authFailureReason(err)
			authFailures.WithLabelValues(reason).Inc()
			if reason == "internal" {
				LoggerFrom(c).Error().Err(err).Msg("authenticate")
				abortJSON(c, http.StatusInternalServerError, "internal_error", "authentication failed")
				return
			}
			abortJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		if profiles != nil {
			if _, err := profiles.Ensure(c.Request.Context(), id.UserID, id.Email, id.Nickname); err != nil {
				LoggerFrom(c).Error().Err(err).Str("user_id", id.UserID).Msg("ensure profile")
				abortJSON(c, http.StatusInternalServerError, "internal_error", "profile unavailable")
				return
			}
		}

		c.Set(ctxKeyUserID, id.UserID)
		c.Set(ctxKeyIdentity, id)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" before authentication.
func UserID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUserID)
	return asString(v)
}

// IdentityFrom returns the authenticated identity.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func authMethod(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return string(id.Method)
	}
	return ""
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return "missing"
	case errors.Is(err, auth.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, auth.ErrInvalidAPIKey):
		return "invalid_key"
	}
	return "internal"
}
