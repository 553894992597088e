package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// subscriptionBuffer bounds how far a slow subscriber may lag before events
// addressed to it are dropped.
const subscriptionBuffer = 64

// MemoryBus is the in-process Bus. It is the default when no broker is
// configured and is safe for concurrent use.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
}

// NewMemoryBus returns an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySub]struct{})}
}

// Publish delivers e to every current subscriber of e.Topic without blocking.
func (b *MemoryBus) Publish(_ context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for s := range b.subs[e.Topic] {
		select {
		case s.ch <- e:
		default:
			log.Warn().Str("topic", e.Topic).Str("event_id", e.ID).Msg("events: subscriber lagging, event dropped")
		}
	}
	return nil
}

// Subscribe registers a subscription on topic.
func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	s := &memorySub{bus: b, topic: topic, ch: make(chan Event, subscriptionBuffer), done: make(chan struct{})}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySub]struct{})
	}
	b.subs[topic][s] = struct{}{}
	return s, nil
}

// Close ends every open subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, set := range b.subs {
		for s := range set {
			s.closeLocked()
		}
	}
	b.subs = nil
	return nil
}

// Subscribers returns how many subscriptions are open on topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

type memorySub struct {
	bus   *MemoryBus
	topic string
	ch    chan Event
	done  chan struct{}
	once  sync.Once
}

func (s *memorySub) Next(ctx context.Context) (Event, error) {
	// Drain buffered events before reporting closure.
	select {
	case e := <-s.ch:
		return e, nil
	default:
	}
	select {
	case e := <-s.ch:
		return e, nil
	case <-s.done:
		return Event{}, ErrClosed
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (s *memorySub) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if set := s.bus.subs[s.topic]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(s.bus.subs, s.topic)
		}
	}
	s.closeLocked()
	return nil
}

func (s *memorySub) closeLocked() { s.once.Do(func() { close(s.done) }) }
