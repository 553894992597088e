// Package services – APIKeyService
//
// This file implements APIKeyService: bot keys are minted for a user, shown
// once, stored only as a SHA-256 hash and revoked by deactivation. The
// service also resolves presented keys for the auth middleware.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/auth"
	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/repo"
)

const defaultKeyName = "Default"

// CreatedAPIKey is the result of Create. Secret is never retrievable again.
type CreatedAPIKey struct {
	Key    domain.BotAPIKey `json:"key"`
	Secret string           `json:"secret"`
}

// APIKeyService implements the bot-key use-cases.
type APIKeyService struct {
	DB  *gorm.DB
	Now func() time.Time

	// Generate mints raw keys; defaults to auth.GenerateKey.
	Generate func() (raw, prefix string, err error)
}

var _ auth.KeyResolver = (*APIKeyService)(nil)

func (s *APIKeyService) now() time.Time { return nowUTC(s.Now) }

// Create mints a new key for userID. An empty name becomes "Default".
func (s *APIKeyService) Create(ctx context.Context, userID, name string) (*CreatedAPIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultKeyName
	}
	name = clipRunes(name, 128)

	gen := s.Generate
	if gen == nil {
		gen = auth.GenerateKey
	}
	raw, prefix, err := gen()
	if err != nil {
		return nil, err
	}

	k := domain.BotAPIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyHash:   auth.HashKey(raw),
		KeyPrefix: prefix,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := repo.CreateAPIKey(ctx, s.DB, &k); err != nil {
		return nil, err
	}
	return &CreatedAPIKey{Key: k, Secret: raw}, nil
}

// List returns the caller's keys, revoked ones included.
func (s *APIKeyService) List(ctx context.Context, userID string) ([]domain.BotAPIKey, error) {
	return repo.ListAPIKeys(ctx, s.DB, userID)
}

// Revoke deactivates key id owned by userID.
func (s *APIKeyService) Revoke(ctx context.Context, userID, id string) error {
	if err := repo.DeactivateAPIKey(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	return nil
}

// ResolveAPIKey maps a presented key to its owner and records the use.
func (s *APIKeyService) ResolveAPIKey(ctx context.Context, raw string) (userID, keyID string, err error) {
	k, err := repo.GetActiveAPIKeyByHash(ctx, s.DB, auth.HashKey(raw))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", "", auth.ErrInvalidAPIKey
		}
		return "", "", err
	}
	if err := repo.TouchAPIKey(ctx, s.DB, k.ID, s.now()); err != nil {
		log.Warn().Err(err).Str("key_id", k.ID).Msg("record api key use failed")
	}
	return k.UserID, k.ID, nil
}
