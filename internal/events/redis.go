package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus distributes events through Redis pub/sub so every server
// instance sees check-ins and waves created on any other instance.
type RedisBus struct {
	client *redis.Client
	prefix string
	mu     sync.Mutex
	open   map[*redisSub]struct{}
}

// RedisOptions configures NewRedisBus.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // channel prefix, default "ltrain:"
}

// NewRedisBus connects to Redis and verifies the connection with PING.
func NewRedisBus(ctx context.Context, opt RedisOptions) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return newRedisBus(client, opt.Prefix), nil
}

func newRedisBus(client *redis.Client, prefix string) *RedisBus {
	if prefix == "" {
		prefix = "ltrain:"
	}
	return &RedisBus{client: client, prefix: prefix, open: make(map[*redisSub]struct{})}
}

func (b *RedisBus) channel(topic string) string { return b.prefix + topic }

// Publish sends e on the topic channel.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(e.Topic), body).Err()
}

// Subscribe opens a pub/sub subscription and waits for Redis to confirm it,
// so events published after Subscribe returns are not missed.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	s := &redisSub{bus: b, ps: ps, ch: ps.Channel()}
	b.mu.Lock()
	b.open[s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

// Close ends open subscriptions and releases the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.open
	b.open = map[*redisSub]struct{}{}
	b.mu.Unlock()
	for s := range subs {
		_ = s.ps.Close()
	}
	return b.client.Close()
}

type redisSub struct {
	bus *RedisBus
	ps  *redis.PubSub
	ch  <-chan *redis.Message
}

func (s *redisSub) Next(ctx context.Context) (Event, error) {
	for {
		select {
		case msg, ok := <-s.ch:
			if !ok {
				return Event{}, ErrClosed
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				// Foreign publishers on our prefix are ignored.
				continue
			}
			return e, nil
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

func (s *redisSub) Close() error {
	s.bus.mu.Lock()
	delete(s.bus.open, s)
	s.bus.mu.Unlock()
	return s.ps.Close()
}
