// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for BotAPIKey.
// Keys are looked up by the hash of the secret; the secret itself never
// reaches this layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// CreateAPIKey inserts k, mapping a hash collision to ErrDuplicate.
func CreateAPIKey(ctx context.Context, db *gorm.DB, k *domain.BotAPIKey) error {
	if err := db.WithContext(ctx).Create(k).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetActiveAPIKeyByHash returns the active key whose hash matches, or
// ErrNotFound.
func GetActiveAPIKeyByHash(ctx context.Context, db *gorm.DB, hash string) (*domain.BotAPIKey, error) {
	var k domain.BotAPIKey
	err := db.WithContext(ctx).
		Where("key_hash = ? AND is_active = ?", hash, true).
		First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// TouchAPIKey records a successful authentication with key id.
func TouchAPIKey(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.BotAPIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

// ListAPIKeys returns every key (active or revoked) owned by userID, newest first.
func ListAPIKeys(ctx context.Context, db *gorm.DB, userID string) ([]domain.BotAPIKey, error) {
	out := []domain.BotAPIKey{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// DeactivateAPIKey revokes key id owned by userID. Returns ErrNotFound when
// the key does not exist or belongs to someone else.
func DeactivateAPIKey(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.BotAPIKey{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
