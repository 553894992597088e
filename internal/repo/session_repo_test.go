package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

func TestUpsertSession_InsertThenReplace(t *testing.T) {
	db := newTestDB(t, &domain.BotSession{})
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	s1, err := UpsertSession(ctx, db, "u1", "8-av", domain.DirectionSouth, t0)
	if err != nil {
		t.Fatalf("UpsertSession insert: %v", err)
	}
	if s1.StationID != "8-av" || !s1.LastHeartbeat.Equal(t0) {
		t.Fatalf("unexpected session: %+v", s1)
	}

	t1 := t0.Add(5 * time.Minute)
	s2, err := UpsertSession(ctx, db, "u1", "bedford-av", domain.DirectionNorth, t1)
	if err != nil {
		t.Fatalf("UpsertSession update: %v", err)
	}
	if s2.ID != s1.ID {
		t.Fatalf("upsert should keep the original row id: %s vs %s", s2.ID, s1.ID)
	}
	if s2.StationID != "bedford-av" || s2.Direction != domain.DirectionNorth || !s2.LastHeartbeat.Equal(t1) {
		t.Fatalf("session not replaced: %+v", s2)
	}

	var n int64
	db.Model(&domain.BotSession{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one session per user, got %d", n)
	}
}

func TestTouchSession(t *testing.T) {
	db := newTestDB(t, &domain.BotSession{})
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := TouchSession(ctx, db, "ghost", "8-av", "", t0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound without session, got %v", err)
	}

	if _, err := UpsertSession(ctx, db, "u1", "8-av", domain.DirectionNorth, t0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t1 := t0.Add(time.Minute)
	if err := TouchSession(ctx, db, "u1", "1-av", "", t1); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	s, _ := GetSessionByUser(ctx, db, "u1")
	if s.StationID != "1-av" || !s.LastHeartbeat.Equal(t1) || s.Direction != domain.DirectionNorth {
		t.Fatalf("unexpected session after touch: %+v", s)
	}
}

func TestListSessionsAtStation_ExcludesSelfStaleAndOtherStations(t *testing.T) {
	db := newTestDB(t, &domain.BotSession{})
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, s := range []struct{ user, station string }{
		{"gone", "bedford-av"}, {"me", "bedford-av"}, {"a", "bedford-av"}, {"b", "bedford-av"}, {"c", "8-av"},
	} {
		if _, err := UpsertSession(ctx, db, s.user, s.station, domain.DirectionSouth, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("seed %s: %v", s.user, err)
		}
	}

	got, err := ListSessionsAtStation(ctx, db, "bedford-av", "me", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListSessionsAtStation: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "b" || got[1].UserID != "a" {
		t.Fatalf("unexpected sessions: %+v", got)
	}
}

func TestDeleteStaleSessions(t *testing.T) {
	db := newTestDB(t, &domain.BotSession{})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, _ = UpsertSession(ctx, db, "old", "8-av", domain.DirectionSouth, now.Add(-time.Hour))
	_, _ = UpsertSession(ctx, db, "live", "8-av", domain.DirectionSouth, now.Add(-time.Minute))

	n, err := DeleteStaleSessions(ctx, db, now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("DeleteStaleSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if _, err := GetSessionByUser(ctx, db, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session should be gone, got %v", err)
	}
	if _, err := GetSessionByUser(ctx, db, "live"); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
}
