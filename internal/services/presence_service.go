// Package services – PresenceService
//
// This file implements PresenceService, which tracks where bots are on the
// line. Each user has at most one session; register upserts it, heartbeat
// refreshes it, and the sweep purges sessions that stopped heartbeating.
// Discovery lists the other live sessions at a station ranked by profile
// specificity.
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DiscoveredBot is one discovery result: a live session joined with its
// owner's public profile.
type DiscoveredBot struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Nickname      string           `json:"nickname"`
	Description   *string          `json:"description"`
	Interests     []string         `json:"interests"`
	Specificity   int              `json:"specificity"`
	StationID     string           `json:"station_id"`
	Direction     domain.Direction `json:"direction"`
	LastHeartbeat time.Time        `json:"last_heartbeat"`
}

// PresenceService implements the session use-cases.
type PresenceService struct {
	DB   *gorm.DB
	Line matching.Line

	// StaleAfter is how long a session survives without a heartbeat.
	StaleAfter time.Duration
	// DefaultLimit applies when discover is called without a limit;
	// MaxLimit caps any requested limit.
	DefaultLimit int
	MaxLimit     int

	Now func() time.Time
}

func (s *PresenceService) now() time.Time { return nowUTC(s.Now) }

// Register creates or replaces the caller's session at stationID.
func (s *PresenceService) Register(ctx context.Context, userID, stationID, direction string) (*domain.BotSession, error) {
	tr := otel.Tracer("services/PresenceService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("station.id", stationID)),
	)
	defer span.End()

	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}
	dir, ok := domain.ParseDirection(direction)
	if !ok {
		return nil, ErrInvalidDirection
	}
	return repo.UpsertSession(ctx, s.DB, userID, stationID, dir, s.now())
}

// Heartbeat moves the caller's existing session to stationID and refreshes
// it. An empty direction keeps the stored one.
func (s *PresenceService) Heartbeat(ctx context.Context, userID, stationID, direction string) error {
	tr := otel.Tracer("services/PresenceService")
	ctx, span := tr.Start(ctx, "Heartbeat",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("station.id", stationID)),
	)
	defer span.End()

	if err := checkStation(s.Line, stationID); err != nil {
		return err
	}
	var dir domain.Direction
	if direction != "" {
		d, ok := domain.ParseDirection(direction)
		if !ok {
			return ErrInvalidDirection
		}
		dir = d
	}
	if err := repo.TouchSession(ctx, s.DB, userID, stationID, dir, s.now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Discover returns the other live sessions at stationID, most specific
// profiles first, capped at limit (DefaultLimit when limit <= 0, never more
// than MaxLimit).
func (s *PresenceService) Discover(ctx context.Context, userID, stationID string, limit int) ([]DiscoveredBot, error) {
	tr := otel.Tracer("services/PresenceService")
	ctx, span := tr.Start(ctx, "Discover",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("station.id", stationID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if err := checkStation(s.Line, stationID); err != nil {
		return nil, err
	}
	limit = s.clampLimit(limit)

	sessions, err := repo.ListSessionsAtStation(ctx, s.DB, stationID, userID, s.now().Add(-s.StaleAfter))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.UserID
	}
	profiles, err := repo.GetProfilesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := make([]DiscoveredBot, 0, len(sessions))
	for _, sess := range sessions {
		p := profiles[sess.UserID]
		interests := p.Interests
		if interests == nil {
			interests = []string{}
		}
		out = append(out, DiscoveredBot{
			ID:            sess.ID,
			UserID:        sess.UserID,
			Nickname:      p.Nickname,
			Description:   p.Description,
			Interests:     interests,
			Specificity:   matching.Specificity(p.Interests),
			StationID:     sess.StationID,
			Direction:     sess.Direction,
			LastHeartbeat: sess.LastHeartbeat,
		})
	}
	// Sessions arrive most recently seen first; that order breaks ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Specificity > out[j].Specificity })
	if len(out) > limit {
		out = out[:limit]
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// PurgeStale deletes sessions whose last heartbeat is older than StaleAfter.
func (s *PresenceService) PurgeStale(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/PresenceService")
	ctx, span := tr.Start(ctx, "PurgeStale")
	defer span.End()

	n, err := repo.DeleteStaleSessions(ctx, s.DB, s.now().Add(-s.StaleAfter))
	span.SetAttributes(attribute.Int64("purged", n))
	return n, err
}

func (s *PresenceService) clampLimit(limit int) int {
	def := s.DefaultLimit
	if def <= 0 {
		def = 10
	}
	if limit <= 0 {
		limit = def
	}
	if s.MaxLimit > 0 && limit > s.MaxLimit {
		limit = s.MaxLimit
	}
	return limit
}
