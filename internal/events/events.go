// Package events is the push channel behind the live check-in and wave feeds
// and the match lifecycle notifications. A Bus fans published events out to
// the subscribers of a topic; subscriptions are lazy, unbounded and
// non-restartable, and must be closed by the subscriber.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrClosed is returned by Next once the subscription (or its bus) is closed.
var ErrClosed = errors.New("events: subscription closed")

// Event types.
const (
	TypeCheckIn       = "checkin.created"
	TypeWave          = "wave.created"
	TypeMatchProposed = "match.proposed"
	TypeMatchAnswered = "match.answered"
	TypeMatchExpired  = "match.expired"
)

// Event is one row-change notification.
type Event struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// New builds an event for topic with payload marshalled as JSON.
func New(topic, typ string, payload any, at time.Time) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:      ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Topic:   topic,
		Type:    typ,
		At:      at.UTC(),
		Payload: b,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error { return json.Unmarshal(e.Payload, v) }

// Topic helpers.
func StationTopic(stationID string) string { return "station:" + stationID }
func UserTopic(userID string) string       { return "user:" + userID }

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscription yields events of one topic in publish order.
type Subscription interface {
	// Next blocks until an event arrives, ctx ends, or the subscription is closed.
	Next(ctx context.Context) (Event, error)
	Close() error
}

// Subscriber opens subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Bus is a Publisher and Subscriber pair.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
