package repo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

func TestEnsureProfile_CreatesOnceThenKeepsExisting(t *testing.T) {
	db := newTestDB(t, &domain.Profile{})
	ctx := context.Background()

	p, err := EnsureProfile(ctx, db, &domain.Profile{ID: "u1", Nickname: "alice"})
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.Nickname != "alice" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	again, err := EnsureProfile(ctx, db, &domain.Profile{ID: "u1", Nickname: "other"})
	if err != nil {
		t.Fatalf("EnsureProfile second: %v", err)
	}
	if again.Nickname != "alice" {
		t.Fatalf("existing profile must not be overwritten, got %q", again.Nickname)
	}
}

func TestSaveProfile_And_GetProfilesByIDs(t *testing.T) {
	db := newTestDB(t, &domain.Profile{})
	ctx := context.Background()

	p, _ := EnsureProfile(ctx, db, &domain.Profile{ID: "u1", Nickname: "alice"})
	desc := "reads on the train"
	p.Description = &desc
	p.Interests = []string{"music", "art"}
	if err := SaveProfile(ctx, db, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	_, _ = EnsureProfile(ctx, db, &domain.Profile{ID: "u2", Nickname: "bob"})

	got, err := GetProfilesByIDs(ctx, db, []string{"u1", "u2", "ghost"})
	if err != nil {
		t.Fatalf("GetProfilesByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(got))
	}
	if !reflect.DeepEqual(got["u1"].Interests, []string{"music", "art"}) || *got["u1"].Description != desc {
		t.Fatalf("saved fields not persisted: %+v", got["u1"])
	}

	empty, err := GetProfilesByIDs(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map for no ids, got %v, %v", empty, err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Profile{})
	if _, err := GetProfile(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
