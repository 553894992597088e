// Command ltrain-server runs the L-Train Love matchmaking API.
//
// @title                      L-Train Love API
// @version                    1.0
// @description                Bot matchmaking backend for riders of the L line.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @securityDefinitions.apikey BotKey
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	_ "github.com/tbourn/ltrain-backend/docs"
	"github.com/tbourn/ltrain-backend/internal/config"
	"github.com/tbourn/ltrain-backend/internal/events"
	httpapi "github.com/tbourn/ltrain-backend/internal/http"
	"github.com/tbourn/ltrain-backend/internal/observability"
	"github.com/tbourn/ltrain-backend/internal/repo"
	"github.com/tbourn/ltrain-backend/internal/stations"
	"github.com/tbourn/ltrain-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(os.Stderr, "ltrain-server", "info", false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stdout, cfg.OTEL.ServiceName, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	catalog, err := stations.Load(cfg.StationsFile)
	if err != nil {
		return err
	}

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version,
		attribute.String("ltrain.line", catalog.Line()),
		attribute.String("db.system", cfg.DBDriver),
	)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	bus, err := openBus(ctx, cfg.Events)
	if err != nil {
		return err
	}
	defer bus.Close()

	app := httpapi.NewApp(db, bus, catalog, cfg)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, app, cfg)

	if cfg.Presence.SweepInterval > 0 {
		go app.Sweeper.Run(ctx, cfg.Presence.SweepInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("db_driver", cfg.DBDriver).
			Int("stations", len(catalog.Order())).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	target := cfg.DBPath
	if cfg.DBDriver != "sqlite" {
		target = cfg.DBDSN
	}
	db, err := repo.Open(cfg.DBDriver, target)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// openBus picks Redis when configured and mirrors match events to RabbitMQ.
func openBus(ctx context.Context, cfg config.EventsConfig) (events.Bus, error) {
	var bus events.Bus
	if cfg.RedisAddr != "" {
		rb, err := events.NewRedisBus(ctx, events.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		bus = rb
		log.Info().Str("addr", cfg.RedisAddr).Msg("events: redis")
	} else {
		bus = events.NewMemoryBus()
	}

	if cfg.RabbitURL == "" {
		return bus, nil
	}
	pub, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	log.Info().Str("queue", cfg.RabbitQueue).Msg("events: amqp mirror")
	return events.Tee(bus, pub), nil
}
