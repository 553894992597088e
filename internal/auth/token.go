package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the identity provider's session token we read.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata carries profile hints set at sign-up.
type UserMetadata struct {
	Nickname string `json:"nickname,omitempty"`
}

// TokenVerifier validates HS256 session tokens.
type TokenVerifier struct {
	secret   []byte
	audience string
	Now      func() time.Time
}

// NewTokenVerifier returns a verifier for tokens signed with secret. A
// non-empty audience is required to appear in the aud claim.
func NewTokenVerifier(secret, audience string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), audience: audience, Now: time.Now}
}

// Verify parses raw and returns the identity in its claims.
func (v *TokenVerifier) Verify(raw string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.Now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, errors.New("empty subject"))
	}
	return Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Nickname: claims.UserMetadata.Nickname,
		Method:   MethodBearer,
	}, nil
}

// Issue signs a session token. Production tokens come from the identity
// provider; this is used by local tooling and tests.
func (v *TokenVerifier) Issue(userID, email, nickname string, ttl time.Duration) (string, error) {
	now := v.Now()
	claims := Claims{
		Email:        email,
		UserMetadata: UserMetadata{Nickname: nickname},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
