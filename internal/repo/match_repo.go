// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Match
// (meeting proposal) model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a proposal is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A second insert under the same idempotency key returns ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateMatch inserts m. ID and timestamps are filled in when unset.
// A unique violation on the idempotency key yields ErrDuplicate.
func CreateMatch(ctx context.Context, db *gorm.DB, m *domain.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetMatch fetches a proposal by id or returns ErrNotFound.
func GetMatch(ctx context.Context, db *gorm.DB, id string) (*domain.Match, error) {
	var m domain.Match
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMatchStatus sets the status of proposal id and returns the updated row.
func UpdateMatchStatus(ctx context.Context, db *gorm.DB, id string, status domain.MatchStatus, now time.Time) (*domain.Match, error) {
	res := db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetMatch(ctx, db, id)
}

// ListMatchesForUser returns the pending and accepted proposals in which
// userID is either party, newest first.
func ListMatchesForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Match, error) {
	out := []domain.Match{}
	err := db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND status IN ?", userID, userID,
			[]domain.MatchStatus{domain.MatchPending, domain.MatchAccepted}).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListIncomingProposals returns the pending proposals addressed to userID,
// newest first.
func ListIncomingProposals(ctx context.Context, db *gorm.DB, userID string) ([]domain.Match, error) {
	out := []domain.Match{}
	err := db.WithContext(ctx).
		Where("user_b_id = ? AND status = ?", userID, domain.MatchPending).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ExpirePendingMatches marks every pending proposal created before cutoff as
// expired and returns the number of rows changed.
func ExpirePendingMatches(ctx context.Context, db *gorm.DB, cutoff, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("status = ? AND created_at < ?", domain.MatchPending, cutoff).
		Updates(map[string]any{"status": domain.MatchExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}
