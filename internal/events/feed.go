package events

import (
	"sort"
	"sync"
	"time"
)

// Feed is a merge-by-id list of recent items, newest first. Items older than
// the window are pruned on every access, so pushes that race with a snapshot
// load converge on one copy of each row.
type Feed[T any] struct {
	mu     sync.Mutex
	window time.Duration
	id     func(T) string
	at     func(T) time.Time
	items  []T
	Now    func() time.Time
}

// NewFeed returns an empty feed keeping items for window.
func NewFeed[T any](window time.Duration, id func(T) string, at func(T) time.Time) *Feed[T] {
	return &Feed[T]{window: window, id: id, at: at, Now: time.Now}
}

// Merge inserts or replaces items by id and returns those whose id was not
// yet present (and that are still fresh).
func (f *Feed[T]) Merge(items ...T) []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := f.Now().Add(-f.window)
	pos := make(map[string]int, len(f.items))
	for i, it := range f.items {
		pos[f.id(it)] = i
	}

	var added []T
	for _, it := range items {
		if f.at(it).Before(cutoff) {
			continue
		}
		if i, ok := pos[f.id(it)]; ok {
			f.items[i] = it
			continue
		}
		pos[f.id(it)] = len(f.items)
		f.items = append(f.items, it)
		added = append(added, it)
	}
	f.pruneLocked(cutoff)
	return added
}

// Items returns the fresh items, newest first.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked(f.Now().Add(-f.window))
	return append([]T(nil), f.items...)
}

// Len returns the number of fresh items.
func (f *Feed[T]) Len() int { return len(f.Items()) }

func (f *Feed[T]) pruneLocked(cutoff time.Time) {
	kept := f.items[:0]
	for _, it := range f.items {
		if !f.at(it).Before(cutoff) {
			kept = append(kept, it)
		}
	}
	f.items = kept
	sort.SliceStable(f.items, func(i, j int) bool { return f.at(f.items[i]).After(f.at(f.items[j])) })
}
