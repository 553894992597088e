package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

func TestGetMatchByIdempotencyKey_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Match{})

	m, err := GetMatchByIdempotencyKey(context.Background(), db, "   ")
	if m != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", m, err)
	}
}

func TestGetMatchByIdempotencyKey_MissingAndFound(t *testing.T) {
	db := newTestDB(t, &domain.Match{})
	now := time.Now().UTC()
	seedMatch(t, db, "m1", "u1", "u2", domain.MatchPending, now, now)

	if m, err := GetMatchByIdempotencyKey(context.Background(), db, "missing"); m != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", m, err)
	}

	m, err := GetMatchByIdempotencyKey(context.Background(), db, "key-m1")
	if err != nil {
		t.Fatalf("GetMatchByIdempotencyKey err: %v", err)
	}
	if m.ID != "m1" || m.UserAID != "u1" || m.Status != domain.MatchPending {
		t.Fatalf("unexpected match: %+v", m)
	}
}

func TestGetMatchByIdempotencyKey_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	_, err := GetMatchByIdempotencyKey(context.Background(), db, "k")
	if err == nil || err == ErrNotFound {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{errors.New("constraint failed: UNIQUE constraint failed: matches.idempotency_key (2067)"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "ux_matches_idempotency_key"`), true},
		{errors.New("Error 1062 (23000): Duplicate entry 'k' for key 'ux_matches_idempotency_key'"), true},
		{errors.New("no such table: matches"), false},
	}
	for _, c := range cases {
		if got := isDuplicate(c.err); got != c.want {
			t.Fatalf("isDuplicate(%v) = %v; want %v", c.err, got, c.want)
		}
	}
}
