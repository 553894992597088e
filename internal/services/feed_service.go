// Package services – CheckInService and WaveService
//
// This file implements the two time-windowed social feeds. Check-ins announce
// presence at a station; waves are one-way signals between users. Both are
// visible for Window (20 minutes by default), stored with time-sortable ULIDs
// and pushed to live subscribers through the event bus.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"
)

const (
	// DefaultWaveMessage is sent when a wave carries no text.
	DefaultWaveMessage = "👋"
	// MaxWaveRunes bounds a wave message.
	MaxWaveRunes = 280

	checkInListLimit = 100
)

// CheckInService implements the station check-in feed.
type CheckInService struct {
	DB     *gorm.DB
	Line   matching.Line
	Events events.Bus
	Window time.Duration
	Now    func() time.Time
}

// Create records a check-in by userID at stationID. An empty nickname falls
// back to the user's profile nickname.
func (s *CheckInService) Create(ctx context.Context, userID, stationID, nickname string, description *string) (*domain.CheckIn, error) {
	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}

	nick := normalizeText(nickname)
	if nick == "" {
		if p, err := repo.GetProfile(ctx, s.DB, userID); err == nil {
			nick = p.Nickname
		} else {
			nick = defaultNickname
		}
	}
	nick = clipRunes(nick, MaxNicknameRunes)

	var desc *string
	if description != nil {
		if d := normalizeText(*description); d != "" {
			if utf8.RuneCountInString(d) > MaxDescriptionRunes {
				return nil, ErrMessageTooLong
			}
			desc = &d
		}
	}

	now := nowUTC(s.Now)
	c := &domain.CheckIn{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		UserID:      userID,
		StationID:   stationID,
		Nickname:    nick,
		Description: desc,
		CreatedAt:   now,
	}
	if err := repo.CreateCheckIn(ctx, s.DB, c); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.StationTopic(stationID), events.TypeCheckIn, c, now)
	return c, nil
}

// ListRecent returns the check-ins at stationID within the window, newest first.
func (s *CheckInService) ListRecent(ctx context.Context, stationID string) ([]domain.CheckIn, error) {
	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}
	return repo.ListCheckInsSince(ctx, s.DB, stationID, nowUTC(s.Now).Add(-s.Window), checkInListLimit)
}

// Subscribe opens a live subscription to new check-ins at stationID.
func (s *CheckInService) Subscribe(ctx context.Context, stationID string) (events.Subscription, error) {
	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}
	return s.Events.Subscribe(ctx, events.StationTopic(stationID))
}

// WaveService implements waves between users.
type WaveService struct {
	DB     *gorm.DB
	Line   matching.Line
	Events events.Bus
	Window time.Duration
	Now    func() time.Time
}

// Send records a wave from fromUserID to toUserID referencing stationID.
func (s *WaveService) Send(ctx context.Context, fromUserID, toUserID, stationID, message string) (*domain.Signal, error) {
	toUserID = strings.TrimSpace(toUserID)
	if toUserID == "" {
		return nil, ErrMissingTarget
	}
	if toUserID == fromUserID {
		return nil, ErrSelfTarget
	}
	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}
	msg := normalizeText(message)
	if msg == "" {
		msg = DefaultWaveMessage
	}
	if utf8.RuneCountInString(msg) > MaxWaveRunes {
		return nil, ErrMessageTooLong
	}

	now := nowUTC(s.Now)
	w := &domain.Signal{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		StationID:  stationID,
		Message:    msg,
		CreatedAt:  now,
	}
	if err := repo.CreateSignal(ctx, s.DB, w); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.UserTopic(toUserID), events.TypeWave, w, now)
	return w, nil
}

// ListRecent returns the waves userID received within the window, newest first.
func (s *WaveService) ListRecent(ctx context.Context, userID string) ([]domain.Signal, error) {
	return repo.ListSignalsTo(ctx, s.DB, userID, nowUTC(s.Now).Add(-s.Window))
}

// Subscribe opens a live subscription to waves addressed to userID. Match
// events for the user travel on the same topic; callers filter by type.
func (s *WaveService) Subscribe(ctx context.Context, userID string) (events.Subscription, error) {
	return s.Events.Subscribe(ctx, events.UserTopic(userID))
}

func nowUTC(f func() time.Time) time.Time {
	if f != nil {
		return f().UTC()
	}
	return time.Now().UTC()
}

func publish(ctx context.Context, p events.Publisher, topic, typ string, payload any, at time.Time) {
	if p == nil {
		return
	}
	e, err := events.New(topic, typ, payload, at)
	if err == nil {
		err = p.Publish(ctx, e)
	}
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Str("type", typ).Msg("publish event failed")
	}
}
