package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/ltrain-backend/internal/auth"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/http/middleware"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"
	"github.com/tbourn/ltrain-backend/internal/services"
	"github.com/tbourn/ltrain-backend/internal/stations"
)

// ---------- test harness ----------

type testAPI struct {
	router *gin.Engine
	db     *gorm.DB
	bus    *events.MemoryBus
	tokens *auth.TokenVerifier
	h      *Handlers
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
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

// newTestAPI wires real services over an in-memory database behind the
// authentication middleware, mirroring the production route table.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	cat := stations.Default()
	presence := &services.PresenceService{DB: db, Line: cat, StaleAfter: 10 * time.Minute, DefaultLimit: 10, MaxLimit: 50}
	proposals := &services.ProposalService{DB: db, Line: cat, Venues: matching.NewVenuePicker(cat), Events: bus, ExpireAfter: time.Hour}
	profiles := &services.ProfileService{DB: db}
	keys := &services.APIKeyService{DB: db}
	tokens := auth.NewTokenVerifier("handler-test-secret", "")

	h := New(Deps{
		Presence:  presence,
		Proposals: proposals,
		Sweeper:   &services.Sweeper{Presence: presence, Proposals: proposals},
		Profiles:  profiles,
		APIKeys:   keys,
		CheckIns:  &services.CheckInService{DB: db, Line: cat, Events: bus, Window: 20 * time.Minute},
		Waves:     &services.WaveService{DB: db, Line: cat, Events: bus, Window: 20 * time.Minute},
		Catalog:   cat,
		MatchStats: func(ctx context.Context, uid string) (int64, *time.Time, error) {
			return repo.MatchesStats(ctx, db, uid)
		},
		StreamPing: 50 * time.Millisecond,
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/stations", h.ListStations)
	r.GET("/cleanup", h.Cleanup)
	r.POST("/cleanup", h.Cleanup)

	api := r.Group("/", middleware.Authenticate(&auth.Authenticator{Tokens: tokens, Keys: keys}, profiles))
	api.POST("/bot", h.BotAction)
	api.GET("/bot", h.BotQuery)
	api.GET("/me", h.GetProfile)
	api.PUT("/me", h.UpdateProfile)
	api.POST("/bot-keys", h.CreateAPIKey)
	api.GET("/bot-keys", h.ListAPIKeys)
	api.DELETE("/bot-keys/:id", h.RevokeAPIKey)
	api.POST("/stations/:id/checkins", h.CreateCheckIn)
	api.GET("/stations/:id/checkins", h.ListCheckIns)
	api.GET("/stations/:id/checkins/stream", h.StreamCheckIns)
	api.POST("/waves", h.SendWave)
	api.GET("/waves", h.ListWaves)
	api.GET("/waves/stream", h.StreamWaves)

	return &testAPI{router: r, db: db, bus: bus, tokens: tokens, h: h}
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := a.tokens.Issue(userID, userID+"@example.com", "", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do performs a request as userID ("" for anonymous) with an optional JSON body.
func (a *testAPI) do(t *testing.T, userID, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(t, userID))
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d want %d body=%s", w.Code, want, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	if e := decode[ErrorResponse](t, w); e.Code != code {
		t.Fatalf("code=%q want %q (%+v)", e.Code, code, e)
	}
}
