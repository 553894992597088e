// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Profile.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// GetProfile fetches a profile by user id or returns ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile inserts p unless a profile with the same id exists, then
// returns the stored row. Concurrent first sign-ins converge on one row.
func EnsureProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) (*domain.Profile, error) {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, p.ID)
}

// SaveProfile writes every column of p.
func SaveProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return db.WithContext(ctx).Save(p).Error
}

// GetProfilesByIDs returns the profiles among ids, keyed by id. Missing ids
// are simply absent from the map.
func GetProfilesByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Profile
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
