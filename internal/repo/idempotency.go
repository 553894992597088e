// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the idempotency-key lookup used to make
// meeting proposals safe to retry, and the unique-violation detection shared
// by every insert that relies on a unique index.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// ErrDuplicate indicates that an insert collided with a unique index
// (idempotency key, session owner, API key hash).
var ErrDuplicate = errors.New("duplicate")

// GetMatchByIdempotencyKey returns the proposal created under key or
// ErrNotFound.
func GetMatchByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Match, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var m domain.Match
	err := db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// isDuplicate maps driver-specific unique violations onto one predicate.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value") || // postgres
		strings.Contains(low, "duplicate entry") // mysql
}
