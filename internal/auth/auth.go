// Package auth resolves the Authorization header of a request to a user
// identity. Two schemes are accepted:
//
//	Authorization: Bearer <session token>   HS256 JWT issued by the identity provider
//	Authorization: Bot <api key>            bot key created through /bot-keys
//
// Bot keys are never stored; only their SHA-256 hash is looked up.
package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingCredentials means no usable Authorization header was sent.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidToken means the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrInvalidAPIKey means the bot key is unknown or revoked.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// Method names how a request was authenticated.
type Method string

const (
	MethodBearer Method = "bearer"
	MethodBotKey Method = "bot"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Email    string
	Nickname string
	Method   Method
	KeyID    string // set for MethodBotKey
}

// KeyResolver maps a raw bot key to its owner.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, raw string) (userID, keyID string, err error)
}

// Authenticator dispatches on the Authorization scheme.
type Authenticator struct {
	Tokens *TokenVerifier
	Keys   KeyResolver
}

// Authenticate resolves header (the raw Authorization value) to an Identity.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Identity, error) {
	header = strings.TrimSpace(header)
	switch {
	case hasScheme(header, "Bot"):
		raw := strings.TrimSpace(header[len("Bot "):])
		if raw == "" || a.Keys == nil {
			return Identity{}, ErrInvalidAPIKey
		}
		userID, keyID, err := a.Keys.ResolveAPIKey(ctx, raw)
		if err != nil {
			return Identity{}, err
		}
		return Identity{UserID: userID, Method: MethodBotKey, KeyID: keyID}, nil

	case hasScheme(header, "Bearer"):
		raw := strings.TrimSpace(header[len("Bearer "):])
		if raw == "" || a.Tokens == nil {
			return Identity{}, ErrInvalidToken
		}
		return a.Tokens.Verify(raw)
	}
	return Identity{}, ErrMissingCredentials
}

func hasScheme(header, scheme string) bool {
	return len(header) > len(scheme) &&
		strings.EqualFold(header[:len(scheme)], scheme) &&
		header[len(scheme)] == ' '
}
