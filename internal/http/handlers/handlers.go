// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers depend on and the
// Handlers type that groups every endpoint. Handlers are transport-thin:
// they bind and validate input, call a service, and translate the result.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/http/middleware"
	"github.com/tbourn/ltrain-backend/internal/services"
	"github.com/tbourn/ltrain-backend/internal/stations"
)

//
// Service contracts (context-aware)
//

// PresenceService tracks bot sessions.
type PresenceService interface {
	Register(ctx context.Context, userID, stationID, direction string) (*domain.BotSession, error)
	Heartbeat(ctx context.Context, userID, stationID, direction string) error
	Discover(ctx context.Context, userID, stationID string, limit int) ([]services.DiscoveredBot, error)
}

// ProposalService owns the meeting-proposal lifecycle.
type ProposalService interface {
	Propose(ctx context.Context, in services.ProposeInput) (*domain.Match, bool, error)
	Respond(ctx context.Context, responderID, matchID string, accept bool) (*domain.Match, error)
	ListMatches(ctx context.Context, userID string) ([]domain.Match, error)
	ListIncoming(ctx context.Context, userID string) ([]domain.Match, error)
}

// Sweeper runs the maintenance sweep.
type Sweeper interface {
	Sweep(ctx context.Context) services.SweepReport
}

// ProfileService reads and edits the caller's profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, u services.ProfileUpdate) (*domain.Profile, error)
}

// APIKeyService manages the caller's bot keys.
type APIKeyService interface {
	Create(ctx context.Context, userID, name string) (*services.CreatedAPIKey, error)
	List(ctx context.Context, userID string) ([]domain.BotAPIKey, error)
	Revoke(ctx context.Context, userID, id string) error
}

// CheckInService is the station check-in feed.
type CheckInService interface {
	Create(ctx context.Context, userID, stationID, nickname string, description *string) (*domain.CheckIn, error)
	ListRecent(ctx context.Context, stationID string) ([]domain.CheckIn, error)
	Subscribe(ctx context.Context, stationID string) (events.Subscription, error)
}

// WaveService is the waves feed.
type WaveService interface {
	Send(ctx context.Context, fromUserID, toUserID, stationID, message string) (*domain.Signal, error)
	ListRecent(ctx context.Context, userID string) ([]domain.Signal, error)
	Subscribe(ctx context.Context, userID string) (events.Subscription, error)
}

// Catalog exposes the station list.
type Catalog interface {
	Line() string
	Stations() []stations.Station
	Venues(id string) []stations.Venue
}

// MatchStatsFunc returns the number of proposals a user is party to and the
// latest change among them; it drives the matches ETag.
type MatchStatsFunc func(ctx context.Context, userID string) (count int64, maxUpdatedAt *time.Time, err error)

//
// Handler wiring
//

// Deps lists the collaborators of Handlers. MatchStats is optional.
type Deps struct {
	Presence   PresenceService
	Proposals  ProposalService
	Sweeper    Sweeper
	Profiles   ProfileService
	APIKeys    APIKeyService
	CheckIns   CheckInService
	Waves      WaveService
	Catalog    Catalog
	MatchStats MatchStatsFunc

	// FeedWindow bounds live feeds (20 minutes when zero); StreamPing is the
	// SSE keep-alive interval (15 seconds when zero).
	FeedWindow time.Duration
	StreamPing time.Duration
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	presence   PresenceService
	proposals  ProposalService
	sweeper    Sweeper
	profiles   ProfileService
	apiKeys    APIKeyService
	checkIns   CheckInService
	waves      WaveService
	catalog    Catalog
	matchStats MatchStatsFunc
	feedWindow time.Duration
	streamPing time.Duration
}

// New builds Handlers from d.
func New(d Deps) *Handlers {
	h := &Handlers{
		presence:   d.Presence,
		proposals:  d.Proposals,
		sweeper:    d.Sweeper,
		profiles:   d.Profiles,
		apiKeys:    d.APIKeys,
		checkIns:   d.CheckIns,
		waves:      d.Waves,
		catalog:    d.Catalog,
		matchStats: d.MatchStats,
		feedWindow: d.FeedWindow,
		streamPing: d.StreamPing,
	}
	if h.feedWindow <= 0 {
		h.feedWindow = 20 * time.Minute
	}
	if h.streamPing <= 0 {
		h.streamPing = 15 * time.Second
	}
	return h
}

// userID is the authenticated caller; the auth middleware guarantees it.
func userID(c *gin.Context) string { return middleware.UserID(c) }
