package events

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type payload struct {
	ID string `json:"id"`
}

func mustEvent(t *testing.T, topic, typ, id string) Event {
	t.Helper()
	e, err := New(topic, typ, payload{ID: id}, time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_AndDecode(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	e, err := New(StationTopic("8-av"), TypeCheckIn, payload{ID: "c1"}, at)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Topic != "station:8-av" || e.Type != TypeCheckIn || len(e.ID) != 26 || e.At.Location() != time.UTC {
		t.Fatalf("unexpected event: %+v", e)
	}
	var p payload
	if err := e.Decode(&p); err != nil || p.ID != "c1" {
		t.Fatalf("Decode: %+v, %v", p, err)
	}
	if _, err := New("t", "x", func() {}, at); err == nil {
		t.Fatalf("expected marshal error for unsupported payload")
	}
}

func TestMemoryBus_DeliversPerTopicInOrder(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, _ := bus.Subscribe(ctx, UserTopic("a"))
	b, _ := bus.Subscribe(ctx, UserTopic("b"))

	_ = bus.Publish(ctx, mustEvent(t, UserTopic("a"), TypeWave, "1"))
	_ = bus.Publish(ctx, mustEvent(t, UserTopic("a"), TypeWave, "2"))
	_ = bus.Publish(ctx, mustEvent(t, UserTopic("b"), TypeWave, "3"))

	for _, want := range []string{"1", "2"} {
		e, err := a.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		var p payload
		_ = e.Decode(&p)
		if p.ID != want {
			t.Fatalf("got %s, want %s", p.ID, want)
		}
	}
	e, err := b.Next(ctx)
	if err != nil || e.Topic != UserTopic("b") {
		t.Fatalf("topic isolation broken: %+v, %v", e, err)
	}
}

func TestMemoryBus_CloseAndCancel(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	sub, _ := bus.Subscribe(ctx, "t")
	if bus.Subscribers("t") != 1 {
		t.Fatalf("expected 1 subscriber")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := sub.Next(cctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_ = sub.Close()
	if bus.Subscribers("t") != 0 {
		t.Fatalf("Close should unregister the subscription")
	}
	if _, err := sub.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
	_ = sub.Close() // idempotent

	other, _ := bus.Subscribe(ctx, "t")
	_ = bus.Close()
	if _, err := other.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("bus Close should end subscriptions, got %v", err)
	}
	if err := bus.Publish(ctx, mustEvent(t, "t", TypeWave, "x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("publish on closed bus: %v", err)
	}
	if _, err := bus.Subscribe(ctx, "t"); !errors.Is(err, ErrClosed) {
		t.Fatalf("subscribe on closed bus: %v", err)
	}
}

func TestMemoryBus_DropsForLaggingSubscriber(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ctx := context.Background()
	sub, _ := bus.Subscribe(ctx, "t")

	for i := 0; i < subscriptionBuffer+5; i++ {
		if err := bus.Publish(ctx, mustEvent(t, "t", TypeWave, "x")); err != nil {
			t.Fatalf("Publish must not block or fail: %v", err)
		}
	}
	n := 0
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	for {
		if _, err := sub.Next(short); err != nil {
			break
		}
		n++
	}
	if n != subscriptionBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriptionBuffer, n)
	}
}

type recordingPublisher struct {
	got    []Event
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func (r *recordingPublisher) Close() error { r.closed = true; return nil }

func TestTee_PublishesEverywhereAndJoinsErrors(t *testing.T) {
	bus := NewMemoryBus()
	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("broker down")}
	tb := Tee(bus, ok, bad)
	ctx := context.Background()

	sub, _ := tb.Subscribe(ctx, "t")
	err := tb.Publish(ctx, mustEvent(t, "t", TypeMatchProposed, "m1"))
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("expected mirror error, got %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Fatalf("every mirror must receive the event")
	}
	if _, err := sub.Next(ctx); err != nil {
		t.Fatalf("bus subscriber must still receive the event: %v", err)
	}

	_ = tb.Close()
	if !ok.closed || !bad.closed {
		t.Fatalf("Close should close closable mirrors")
	}
	if Tee(bus) != Bus(bus) {
		t.Fatalf("Tee without mirrors should return the bus itself")
	}
}

func TestAMQPPublishing_OnlyMatchEvents(t *testing.T) {
	if _, ok, err := publishing(mustEvent(t, "t", TypeWave, "w")); ok || err != nil {
		t.Fatalf("wave events must not be mirrored: ok=%v err=%v", ok, err)
	}
	e := mustEvent(t, UserTopic("b"), TypeMatchProposed, "m1")
	msg, ok, err := publishing(e)
	if err != nil || !ok {
		t.Fatalf("publishing: ok=%v err=%v", ok, err)
	}
	if msg.MessageId != e.ID || msg.Type != TypeMatchProposed || msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing: %+v", msg)
	}
}

// Integration: requires a reachable Redis at REDIS_ADDR.
func TestRedisBus_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := NewRedisBus(ctx, RedisOptions{Addr: addr, Prefix: "ltrain-test:"})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	defer bus.Close()

	sub, err := bus.Subscribe(ctx, "t")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	want := mustEvent(t, "t", TypeCheckIn, "c1")
	if err := bus.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, err := sub.Next(ctx)
	if err != nil || got.ID != want.ID {
		t.Fatalf("Next: %+v, %v", got, err)
	}
}
