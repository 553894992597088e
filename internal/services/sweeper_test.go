package services

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

func TestSweeper_Sweep(t *testing.T) {
	db := newSvcDB(t)
	pres := newPresenceSvc(db)
	props := newProposalSvc(t, db, nil)
	ctx := context.Background()

	pres.Now = clock(testNow.Add(-time.Hour))
	_, _ = pres.Register(ctx, "gone", "8-av", "")
	props.Now = clock(testNow.Add(-2 * time.Hour))
	_, _, _ = props.Propose(ctx, ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "old"})

	pres.Now = clock(testNow)
	props.Now = clock(testNow)
	_, _, _ = props.Propose(ctx, ProposeInput{ProposerID: "a", TargetID: "c", StationID: "8-av", IdempotencyKey: "new"})

	rep := (&Sweeper{Presence: pres, Proposals: props}).Sweep(ctx)
	if !rep.SessionsOK || !rep.MatchesOK {
		t.Fatalf("expected both sweeps to succeed: %+v", rep)
	}
	if rep.SessionsPurged != 1 || rep.MatchesExpired != 1 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
}

func TestSweeper_IndependentFailures(t *testing.T) {
	db := newSvcDB(t)
	pres := newPresenceSvc(db)
	props := newProposalSvc(t, db, nil)

	if err := db.Migrator().DropTable(&domain.Match{}); err != nil {
		t.Fatalf("drop matches: %v", err)
	}

	rep := (&Sweeper{Presence: pres, Proposals: props}).Sweep(context.Background())
	if !rep.SessionsOK {
		t.Fatalf("session sweep should still succeed: %+v", rep)
	}
	if rep.MatchesOK {
		t.Fatalf("match sweep should report failure: %+v", rep)
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	db := newSvcDB(t)
	sw := &Sweeper{Presence: newPresenceSvc(db), Proposals: newProposalSvc(t, db, nil)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
