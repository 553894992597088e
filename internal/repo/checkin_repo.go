// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for CheckIn and
// Signal (waves), the two time-windowed feeds.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// CreateCheckIn inserts c.
func CreateCheckIn(ctx context.Context, db *gorm.DB, c *domain.CheckIn) error {
	return db.WithContext(ctx).Create(c).Error
}

// ListCheckInsSince returns the check-ins at stationID created at or after
// since, newest first. A non-positive limit means no limit.
func ListCheckInsSince(ctx context.Context, db *gorm.DB, stationID string, since time.Time, limit int) ([]domain.CheckIn, error) {
	out := []domain.CheckIn{}
	q := db.WithContext(ctx).
		Where("station_id = ? AND created_at >= ?", stationID, since).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CreateSignal inserts s.
func CreateSignal(ctx context.Context, db *gorm.DB, s *domain.Signal) error {
	return db.WithContext(ctx).Create(s).Error
}

// ListSignalsTo returns the waves received by userID at or after since,
// newest first.
func ListSignalsTo(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.Signal, error) {
	out := []domain.Signal{}
	err := db.WithContext(ctx).
		Where("to_user_id = ? AND created_at >= ?", userID, since).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
