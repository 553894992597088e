package events

import (
	"testing"
	"time"
)

type row struct {
	ID  string
	At  time.Time
	Val string
}

func newRowFeed(now time.Time) *Feed[row] {
	f := NewFeed(20*time.Minute, func(r row) string { return r.ID }, func(r row) time.Time { return r.At })
	f.Now = func() time.Time { return now }
	return f
}

func TestFeed_MergeByIDNewestFirst(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newRowFeed(now)

	added := f.Merge(
		row{ID: "a", At: now.Add(-5 * time.Minute)},
		row{ID: "b", At: now.Add(-1 * time.Minute)},
	)
	if len(added) != 2 {
		t.Fatalf("expected 2 added, got %d", len(added))
	}

	// Pushed row overlapping the snapshot replaces it and is not reported again.
	added = f.Merge(row{ID: "a", At: now.Add(-5 * time.Minute), Val: "updated"}, row{ID: "c", At: now})
	if len(added) != 1 || added[0].ID != "c" {
		t.Fatalf("expected only c to be new, got %+v", added)
	}

	items := f.Items()
	if len(items) != 3 || items[0].ID != "c" || items[1].ID != "b" || items[2].ID != "a" || items[2].Val != "updated" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestFeed_DropsStaleItems(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newRowFeed(now)

	added := f.Merge(row{ID: "old", At: now.Add(-21 * time.Minute)}, row{ID: "new", At: now})
	if len(added) != 1 || added[0].ID != "new" {
		t.Fatalf("stale rows must not be added: %+v", added)
	}

	// Time moves on: the remaining row ages out.
	f.Now = func() time.Time { return now.Add(25 * time.Minute) }
	if f.Len() != 0 {
		t.Fatalf("expected feed to be empty after window, got %d", f.Len())
	}
}
