// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/auth"
	"github.com/tbourn/ltrain-backend/internal/config"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/http/handlers"
	"github.com/tbourn/ltrain-backend/internal/http/middleware"
	"github.com/tbourn/ltrain-backend/internal/matching"
	"github.com/tbourn/ltrain-backend/internal/repo"
	"github.com/tbourn/ltrain-backend/internal/services"
	"github.com/tbourn/ltrain-backend/internal/stations"
)

// App holds the services behind the API. main drives Sweeper on a ticker in
// addition to the /cleanup endpoint.
type App struct {
	Presence  *services.PresenceService
	Proposals *services.ProposalService
	Sweeper   *services.Sweeper
	Profiles  *services.ProfileService
	APIKeys   *services.APIKeyService
	CheckIns  *services.CheckInService
	Waves     *services.WaveService
	Auth      *auth.Authenticator
	Catalog   *stations.Catalog
}

// NewApp builds every service over db, bus and catalog using the tunables in cfg.
func NewApp(db *gorm.DB, bus events.Bus, catalog *stations.Catalog, cfg config.Config) *App {
	presence := &services.PresenceService{
		DB:           db,
		Line:         catalog,
		StaleAfter:   cfg.Presence.SessionStaleAfter,
		DefaultLimit: cfg.Presence.DiscoverDefaultLimit,
		MaxLimit:     cfg.Presence.DiscoverMaxLimit,
	}
	proposals := &services.ProposalService{
		DB:          db,
		Line:        catalog,
		Venues:      matching.NewVenuePicker(catalog),
		Events:      bus,
		ExpireAfter: cfg.Presence.MatchExpireAfter,
	}
	keys := &services.APIKeyService{DB: db}

	return &App{
		Presence:  presence,
		Proposals: proposals,
		Sweeper:   &services.Sweeper{Presence: presence, Proposals: proposals},
		Profiles:  &services.ProfileService{DB: db},
		APIKeys:   keys,
		CheckIns:  &services.CheckInService{DB: db, Line: catalog, Events: bus, Window: cfg.Presence.CheckinWindow},
		Waves:     &services.WaveService{DB: db, Line: catalog, Events: bus, Window: cfg.Presence.CheckinWindow},
		Auth: &auth.Authenticator{
			Tokens: auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience),
			Keys:   keys,
		},
		Catalog: catalog,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, CORS
// and security headers, health, metrics and Swagger endpoints, and then
// mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (event streams excluded)
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. CORS and Security headers
//
// Authenticated routes then run Authenticate followed by the rate limiter, so
// buckets are keyed by bot key or user rather than by IP.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, app *App, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"Idempotency-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compression; SSE responses must reach the client unbuffered
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`.*/stream$`, `^/metrics$`}),
	))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, key string) (bool, error) {
			if _, err := repo.GetMatchByIdempotencyKey(ctx, db, key); err != nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Presence:  app.Presence,
		Proposals: app.Proposals,
		Sweeper:   app.Sweeper,
		Profiles:  app.Profiles,
		APIKeys:   app.APIKeys,
		CheckIns:  app.CheckIns,
		Waves:     app.Waves,
		Catalog:   app.Catalog,
		MatchStats: func(ctx context.Context, userID string) (int64, *time.Time, error) {
			return repo.MatchesStats(ctx, db, userID)
		},
		FeedWindow: cfg.Presence.CheckinWindow,
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCaller())

	base := groupWithPrefix(r, cfg.APIBasePath)

	// Public API
	public := base.Group("", rl.Handler())
	{
		public.GET("/stations", h.ListStations)
		public.GET("/cleanup", h.Cleanup)
		public.POST("/cleanup", h.Cleanup)
	}

	// Authenticated API
	api := base.Group("", middleware.Authenticate(app.Auth, app.Profiles), rl.Handler())
	{
		// Bot action dispatch
		api.POST("/bot", h.BotAction)
		api.GET("/bot", h.BotQuery)

		// Profile
		api.GET("/me", h.GetProfile)
		api.PUT("/me", h.UpdateProfile)

		// Bot API keys
		api.POST("/bot-keys", h.CreateAPIKey)
		api.GET("/bot-keys", h.ListAPIKeys)
		api.DELETE("/bot-keys/:id", h.RevokeAPIKey)

		// Check-ins
		api.POST("/stations/:id/checkins", h.CreateCheckIn)
		api.GET("/stations/:id/checkins", h.ListCheckIns)
		api.GET("/stations/:id/checkins/stream", h.StreamCheckIns)

		// Waves
		api.POST("/waves", h.SendWave)
		api.GET("/waves", h.ListWaves)
		api.GET("/waves/stream", h.StreamWaves)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
