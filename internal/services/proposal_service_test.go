package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"
	"github.com/tbourn/ltrain-backend/internal/stations"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newProposalSvc(t *testing.T, db *gorm.DB, bus events.Bus) *ProposalService {
	t.Helper()
	cat := stations.Default()
	return &ProposalService{
		DB:          db,
		Line:        cat,
		Venues:      matching.NewVenuePicker(cat),
		Events:      bus,
		ExpireAfter: time.Hour,
		Now:         clock(testNow),
	}
}

func seedSession(t *testing.T, db *gorm.DB, userID, stationID string, dir domain.Direction) {
	t.Helper()
	if _, err := repo.UpsertSession(context.Background(), db, userID, stationID, dir, testNow); err != nil {
		t.Fatalf("seed session %s: %v", userID, err)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ---------- Propose ----------

func TestPropose_Validation(t *testing.T) {
	svc := newProposalSvc(t, newSvcDB(t), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ProposeInput
		want error
	}{
		{"missing key", ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "  "}, ErrMissingIdempotencyKey},
		{"missing target", ProposeInput{ProposerID: "a", StationID: "8-av", IdempotencyKey: "k"}, ErrMissingTarget},
		{"self target", ProposeInput{ProposerID: "a", TargetID: "a", StationID: "8-av", IdempotencyKey: "k"}, ErrSelfTarget},
		{"missing station", ProposeInput{ProposerID: "a", TargetID: "b", IdempotencyKey: "k"}, ErrMissingStation},
		{"unknown station", ProposeInput{ProposerID: "a", TargetID: "b", StationID: "atlantis", IdempotencyKey: "k"}, ErrUnknownStation},
		{"bad direction", ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "k", Direction: "east"}, ErrInvalidDirection},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, _, err := svc.Propose(ctx, c.in); !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestPropose_NoTargetSession_MeetsAtProposerStation(t *testing.T) {
	svc := newProposalSvc(t, newSvcDB(t), nil)

	m, dup, err := svc.Propose(context.Background(), ProposeInput{
		ProposerID: "a", TargetID: "b", StationID: "bedford-av", IdempotencyKey: "k1",
	})
	if err != nil || dup {
		t.Fatalf("Propose: dup=%v err=%v", dup, err)
	}
	if m.Status != domain.MatchPending || m.UserAID != "a" || m.UserBID != "b" || m.StationID != "bedford-av" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.MeetingStation == nil || *m.MeetingStation != "bedford-av" {
		t.Fatalf("meeting station should fall back to proposer's: %v", m.MeetingStation)
	}
	if m.VenueName == nil || !contains([]string{"The Levee", "Cafe Reggio"}, *m.VenueName) {
		t.Fatalf("venue should be one of bedford-av's: %v", m.VenueName)
	}
	if !m.CreatedAt.Equal(testNow) {
		t.Fatalf("CreatedAt = %v, want %v", m.CreatedAt, testNow)
	}
}

func TestPropose_ResolvesMeetingStationFromSessions(t *testing.T) {
	cases := []struct {
		name        string
		proposerDir domain.Direction // stored on proposer's session
		inputDir    string
		targetAt    string
		targetDir   domain.Direction
		want        string
	}{
		{"same direction picks lower index", domain.DirectionSouth, "", "8-av", domain.DirectionSouth, "8-av"},
		{"opposite directions favour proposer", domain.DirectionNorth, "", "8-av", domain.DirectionSouth, "bedford-av"},
		{"explicit direction overrides session", domain.DirectionNorth, "south", "8-av", domain.DirectionSouth, "8-av"},
		{"target further along the line", domain.DirectionSouth, "", "canarsie", domain.DirectionSouth, "bedford-av"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := newSvcDB(t)
			svc := newProposalSvc(t, db, nil)
			seedSession(t, db, "a", "bedford-av", c.proposerDir)
			seedSession(t, db, "b", c.targetAt, c.targetDir)

			m, _, err := svc.Propose(context.Background(), ProposeInput{
				ProposerID: "a", TargetID: "b", StationID: "bedford-av", IdempotencyKey: "k", Direction: c.inputDir,
			})
			if err != nil {
				t.Fatalf("Propose: %v", err)
			}
			if *m.MeetingStation != c.want {
				t.Fatalf("meeting station = %q, want %q", *m.MeetingStation, c.want)
			}
		})
	}
}

func TestPropose_SameKeyTwice_OneRowSecondDuplicate(t *testing.T) {
	db := newSvcDB(t)
	bus := events.NewMemoryBus()
	defer bus.Close()
	svc := newProposalSvc(t, db, bus)
	ctx := context.Background()

	sub, _ := bus.Subscribe(ctx, events.UserTopic("b"))
	defer sub.Close()

	in := ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "propose_x"}
	first, dup, err := svc.Propose(ctx, in)
	if err != nil || dup {
		t.Fatalf("first Propose: dup=%v err=%v", dup, err)
	}
	in.StationID = "canarsie" // ignored on replay
	second, dup, err := svc.Propose(ctx, in)
	if err != nil || !dup {
		t.Fatalf("second Propose: dup=%v err=%v", dup, err)
	}
	if second.ID != first.ID || second.StationID != "8-av" {
		t.Fatalf("duplicate should return the first row: %+v vs %+v", second, first)
	}

	var n int64
	db.Model(&domain.Match{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one stored proposal, got %d", n)
	}

	// Exactly one event for the target.
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	e, err := sub.Next(short)
	if err != nil || e.Type != events.TypeMatchProposed {
		t.Fatalf("expected proposed event, got %+v, %v", e, err)
	}
	if _, err := sub.Next(short); err == nil {
		t.Fatalf("duplicate propose must not publish again")
	}
}

// ---------- Respond ----------

func TestRespond_Lifecycle(t *testing.T) {
	db := newSvcDB(t)
	svc := newProposalSvc(t, db, nil)
	ctx := context.Background()

	m, _, err := svc.Propose(ctx, ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "k"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if _, err := svc.Respond(ctx, "b", "", true); !errors.Is(err, ErrMissingMatchID) {
		t.Fatalf("expected ErrMissingMatchID, got %v", err)
	}
	if _, err := svc.Respond(ctx, "b", "nope", true); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}

	// Proposer and strangers cannot answer; status stays pending.
	for _, who := range []string{"a", "c"} {
		if _, err := svc.Respond(ctx, who, m.ID, true); !errors.Is(err, ErrNotMatchTarget) {
			t.Fatalf("%s: expected ErrNotMatchTarget, got %v", who, err)
		}
	}
	if got, _ := repo.GetMatch(ctx, db, m.ID); got.Status != domain.MatchPending {
		t.Fatalf("status changed by unauthorized respond: %q", got.Status)
	}

	got, err := svc.Respond(ctx, "b", m.ID, true)
	if err != nil || got.Status != domain.MatchAccepted {
		t.Fatalf("accept: %+v, %v", got, err)
	}
	// Re-answering a terminal proposal is allowed.
	got, err = svc.Respond(ctx, "b", m.ID, false)
	if err != nil || got.Status != domain.MatchRejected {
		t.Fatalf("re-answer: %+v, %v", got, err)
	}
}

func TestRespond_ExpiredIsClosed(t *testing.T) {
	db := newSvcDB(t)
	svc := newProposalSvc(t, db, nil)
	ctx := context.Background()

	m, _, _ := svc.Propose(ctx, ProposeInput{ProposerID: "a", TargetID: "b", StationID: "8-av", IdempotencyKey: "k"})

	svc.Now = clock(testNow.Add(2 * time.Hour))
	n, err := svc.ExpireStale(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ExpireStale: n=%d err=%v", n, err)
	}
	if _, err := svc.Respond(ctx, "b", m.ID, true); !errors.Is(err, ErrMatchClosed) {
		t.Fatalf("expected ErrMatchClosed, got %v", err)
	}
}

// ---------- Lists ----------

func TestListMatches_And_ListIncoming(t *testing.T) {
	db := newSvcDB(t)
	svc := newProposalSvc(t, db, nil)
	ctx := context.Background()

	out, _, _ := svc.Propose(ctx, ProposeInput{ProposerID: "me", TargetID: "x", StationID: "8-av", IdempotencyKey: "k1"})
	svc.Now = clock(testNow.Add(time.Minute))
	in, _, _ := svc.Propose(ctx, ProposeInput{ProposerID: "y", TargetID: "me", StationID: "8-av", IdempotencyKey: "k2"})
	svc.Now = clock(testNow.Add(2 * time.Minute))
	rej, _, _ := svc.Propose(ctx, ProposeInput{ProposerID: "z", TargetID: "me", StationID: "8-av", IdempotencyKey: "k3"})
	if _, err := svc.Respond(ctx, "me", rej.ID, false); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	matches, err := svc.ListMatches(ctx, "me")
	if err != nil || len(matches) != 2 || matches[0].ID != in.ID || matches[1].ID != out.ID {
		t.Fatalf("ListMatches: %+v, %v", matches, err)
	}
	incoming, err := svc.ListIncoming(ctx, "me")
	if err != nil || len(incoming) != 1 || incoming[0].ID != in.ID {
		t.Fatalf("ListIncoming: %+v, %v", incoming, err)
	}
}
