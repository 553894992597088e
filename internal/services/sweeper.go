// Package services – Sweeper
//
// This file implements the maintenance sweep: purge stale sessions and
// expire old pending proposals. The two sub-sweeps run independently so a
// failure in one never suppresses the other; the report says which succeeded.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SweepReport is the outcome of one sweep.
type SweepReport struct {
	SessionsOK     bool  `json:"cleaned_stale_sessions"`
	MatchesOK      bool  `json:"cleaned_expired_matches"`
	SessionsPurged int64 `json:"sessions_purged"`
	MatchesExpired int64 `json:"matches_expired"`
}

// Sweeper runs the maintenance sweep.
type Sweeper struct {
	Presence  *PresenceService
	Proposals *ProposalService
}

// Sweep runs both sub-sweeps once.
func (s *Sweeper) Sweep(ctx context.Context) SweepReport {
	var rep SweepReport

	n, err := s.Presence.PurgeStale(ctx)
	rep.SessionsOK = err == nil
	rep.SessionsPurged = n
	recordSweep("sessions", err)
	if err != nil {
		log.Error().Err(err).Msg("cleanup stale sessions failed")
	}

	n, err = s.Proposals.ExpireStale(ctx)
	rep.MatchesOK = err == nil
	rep.MatchesExpired = n
	recordSweep("matches", err)
	if err != nil {
		log.Error().Err(err).Msg("cleanup expired matches failed")
	}

	log.Info().
		Bool("sessions_ok", rep.SessionsOK).
		Int64("sessions_purged", rep.SessionsPurged).
		Bool("matches_ok", rep.MatchesOK).
		Int64("matches_expired", rep.MatchesExpired).
		Msg("sweep finished")
	return rep
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

func recordSweep(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sweepRuns.WithLabelValues(task, result).Inc()
}
