// Package services – ProposalService
//
// This file implements ProposalService, which owns the meeting-proposal
// lifecycle: idempotent creation, the target's accept/reject response, the
// two listing views and the expiry sweep. A proposal moves
//
//	pending -> accepted | rejected   (target responds)
//	pending -> expired               (sweep, after ExpireAfter)
//
// Accepted and rejected proposals may be re-answered; expired ones may not.
//
// Observability: public methods are OpenTelemetry-instrumented and lifecycle
// changes are published on the event bus for live views and bot workers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProposeInput carries the arguments of Propose.
type ProposeInput struct {
	ProposerID     string
	TargetID       string
	StationID      string
	IdempotencyKey string
	// Direction is the proposer's travel direction; empty falls back to the
	// proposer's session, then to domain.DefaultDirection.
	Direction string
}

// ProposalService implements the meeting-proposal use-cases.
type ProposalService struct {
	DB     *gorm.DB
	Line   matching.Line
	Venues *matching.VenuePicker
	Events events.Publisher

	// ExpireAfter is the age after which pending proposals are expired.
	ExpireAfter time.Duration

	Now func() time.Time
}

func (s *ProposalService) now() time.Time { return nowUTC(s.Now) }

// Propose creates a pending proposal from in.ProposerID to in.TargetID.
//
// A proposal already stored under in.IdempotencyKey is returned as is with
// duplicate=true; nothing else happens in that case. Otherwise the meeting
// station is resolved from the proposer's station and the target's current
// session (the proposer's station when the target has none) and a venue near
// it is suggested.
func (s *ProposalService) Propose(ctx context.Context, in ProposeInput) (m *domain.Match, duplicate bool, err error) {
	tr := otel.Tracer("services/ProposalService")
	ctx, span := tr.Start(ctx, "Propose",
		trace.WithAttributes(
			attribute.String("user.id", in.ProposerID),
			attribute.String("target.id", in.TargetID),
			attribute.String("station.id", in.StationID),
		),
	)
	defer span.End()

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		return nil, false, ErrMissingIdempotencyKey
	}
	if strings.TrimSpace(in.TargetID) == "" {
		return nil, false, ErrMissingTarget
	}
	if in.TargetID == in.ProposerID {
		return nil, false, ErrSelfTarget
	}
	if err := checkStation(s.Line, in.StationID); err != nil {
		return nil, false, err
	}
	dirA, ok := domain.ParseDirection(in.Direction)
	if !ok {
		return nil, false, ErrInvalidDirection
	}

	existing, err := repo.GetMatchByIdempotencyKey(ctx, s.DB, key)
	switch {
	case err == nil:
		proposalsTotal.WithLabelValues("duplicate").Inc()
		span.SetAttributes(attribute.Bool("duplicate", true))
		return existing, true, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, false, err
	}

	meeting := in.StationID
	target, err := repo.GetSessionByUser(ctx, s.DB, in.TargetID)
	switch {
	case err == nil:
		if in.Direction == "" {
			dirA = s.sessionDirection(ctx, in.ProposerID)
		}
		meeting = matching.MeetingStation(s.Line, in.StationID, target.StationID, dirA, target.Direction)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, false, err
	}

	now := s.now()
	m = &domain.Match{
		UserAID:        in.ProposerID,
		UserBID:        in.TargetID,
		StationID:      in.StationID,
		MeetingStation: &meeting,
		IdempotencyKey: key,
		Status:         domain.MatchPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if venue, ok := s.Venues.VenueFor(meeting); ok {
		m.VenueName = &venue
	}

	if err := repo.CreateMatch(ctx, s.DB, m); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost the race against a concurrent call with the same key.
			winner, gerr := repo.GetMatchByIdempotencyKey(ctx, s.DB, key)
			if gerr != nil {
				return nil, false, gerr
			}
			proposalsTotal.WithLabelValues("duplicate").Inc()
			return winner, true, nil
		}
		return nil, false, err
	}

	proposalsTotal.WithLabelValues("created").Inc()
	publish(ctx, s.Events, events.UserTopic(m.UserBID), events.TypeMatchProposed, m, now)
	return m, false, nil
}

// Respond records the target's answer to proposal matchID.
func (s *ProposalService) Respond(ctx context.Context, responderID, matchID string, accept bool) (*domain.Match, error) {
	tr := otel.Tracer("services/ProposalService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("user.id", responderID),
			attribute.String("match.id", matchID),
			attribute.Bool("accept", accept),
		),
	)
	defer span.End()

	if strings.TrimSpace(matchID) == "" {
		return nil, ErrMissingMatchID
	}

	m, err := repo.GetMatch(ctx, s.DB, matchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if m.UserBID != responderID {
		return nil, ErrNotMatchTarget
	}
	if m.Status == domain.MatchExpired {
		return nil, ErrMatchClosed
	}

	status := domain.MatchRejected
	if accept {
		status = domain.MatchAccepted
	}
	updated, err := repo.UpdateMatchStatus(ctx, s.DB, m.ID, status, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	responsesTotal.WithLabelValues(string(status)).Inc()
	publish(ctx, s.Events, events.UserTopic(updated.UserAID), events.TypeMatchAnswered, updated, updated.UpdatedAt)
	return updated, nil
}

// ListMatches returns the pending and accepted proposals the user is party to,
// newest first.
func (s *ProposalService) ListMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	tr := otel.Tracer("services/ProposalService")
	ctx, span := tr.Start(ctx, "ListMatches", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ListMatchesForUser(ctx, s.DB, userID)
}

// ListIncoming returns the pending proposals addressed to the user, newest first.
func (s *ProposalService) ListIncoming(ctx context.Context, userID string) ([]domain.Match, error) {
	tr := otel.Tracer("services/ProposalService")
	ctx, span := tr.Start(ctx, "ListIncoming", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ListIncomingProposals(ctx, s.DB, userID)
}

// ExpireStale marks pending proposals older than ExpireAfter as expired.
func (s *ProposalService) ExpireStale(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/ProposalService")
	ctx, span := tr.Start(ctx, "ExpireStale")
	defer span.End()

	now := s.now()
	n, err := repo.ExpirePendingMatches(ctx, s.DB, now.Add(-s.ExpireAfter), now)
	span.SetAttributes(attribute.Int64("expired", n))
	return n, err
}

func (s *ProposalService) sessionDirection(ctx context.Context, userID string) domain.Direction {
	if sess, err := repo.GetSessionByUser(ctx, s.DB, userID); err == nil && sess.Direction != "" {
		return sess.Direction
	}
	return domain.DefaultDirection
}

// checkStation validates a caller-supplied station id against the line.
func checkStation(line matching.Line, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingStation
	}
	if line != nil {
		if _, ok := line.Index(id); !ok {
			return ErrUnknownStation
		}
	}
	return nil
}
