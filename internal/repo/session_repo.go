// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for BotSession,
// the one-row-per-user presence record.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// UpsertSession creates or replaces the session owned by userID, keyed on the
// unique user_id index, and returns the stored row.
func UpsertSession(ctx context.Context, db *gorm.DB, userID, stationID string, dir domain.Direction, now time.Time) (*domain.BotSession, error) {
	s := &domain.BotSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		StationID:     stationID,
		Direction:     dir,
		LastHeartbeat: now,
		CreatedAt:     now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"station_id", "direction", "last_heartbeat"}),
		}).
		Create(s).Error
	if err != nil {
		return nil, err
	}
	return GetSessionByUser(ctx, db, userID)
}

// TouchSession moves the existing session of userID to stationID and refreshes
// its heartbeat. An empty dir keeps the stored direction. Returns ErrNotFound
// when the user has no session.
func TouchSession(ctx context.Context, db *gorm.DB, userID, stationID string, dir domain.Direction, now time.Time) error {
	updates := map[string]any{"station_id": stationID, "last_heartbeat": now}
	if dir != "" {
		updates["direction"] = dir
	}
	res := db.WithContext(ctx).
		Model(&domain.BotSession{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetSessionByUser returns the session of userID or ErrNotFound.
func GetSessionByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.BotSession, error) {
	var s domain.BotSession
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessionsAtStation returns the sessions at stationID seen at or after
// since, other than the one owned by excludeUserID, most recently seen first.
func ListSessionsAtStation(ctx context.Context, db *gorm.DB, stationID, excludeUserID string, since time.Time) ([]domain.BotSession, error) {
	out := []domain.BotSession{}
	err := db.WithContext(ctx).
		Where("station_id = ? AND user_id <> ? AND last_heartbeat >= ?", stationID, excludeUserID, since).
		Order("last_heartbeat desc").
		Find(&out).Error
	return out, err
}

// DeleteStaleSessions removes every session whose heartbeat is older than
// cutoff and returns the number of rows deleted.
func DeleteStaleSessions(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("last_heartbeat < ?", cutoff).
		Delete(&domain.BotSession{})
	return res.RowsAffected, res.Error
}
