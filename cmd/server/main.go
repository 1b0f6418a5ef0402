// Command server runs the Mensa meal plan API and the bearer-protected sync
// trigger. The cron scheduler keeps the meal plan current (when
// SYNC_ENABLED) and purges expired idempotency keys. Everything runs under
// one supervisor tree and stops gracefully on SIGINT/SIGTERM.
//
//	@title						Speisly Mensa API
//	@version					1.0
//	@description				Meal plans from the Meine Mensa API, visitor ratings and feedback.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by the sync token.
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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/speisly/mensa-api/internal/config"
	httpapi "github.com/speisly/mensa-api/internal/http"
	"github.com/speisly/mensa-api/internal/mensaapi"
	"github.com/speisly/mensa-api/internal/notify"
	"github.com/speisly/mensa-api/internal/observability"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/scheduler"
	"github.com/speisly/mensa-api/internal/search"
	"github.com/speisly/mensa-api/internal/services"
	"github.com/speisly/mensa-api/internal/supervisor"
	"github.com/speisly/mensa-api/internal/sysutil"
)

var version = "dev"

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(os.Stderr, false, "mensa-api")
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logr := sysutil.SetupLogger(os.Stderr, cfg.LogPretty, sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "mensa-api"))
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := repo.Open(repo.Options{
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.DBPath,
		LogLevel:    gormLogLevel(zerolog.GlobalLevel()),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
		log.Fatal().Err(err).Msg("database instrumentation failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	log.Info().Bool("postgres", cfg.UsesPostgres()).Msg("database ready")

	notifier := newNotifier(cfg)
	reporter := &services.ErrorReporter{DB: db, Notifier: notifier}

	index := &search.Holder{}
	syncSvc := services.NewSyncService(db, mensaapi.NewClient(cfg.MensaAPI.BaseURL, cfg.MensaAPI.Timeout), reporter, index)
	syncSvc.WindowDays = cfg.Sync.WindowDays
	syncSvc.IndexOptions = []search.Option{
		search.WithStopwords(search.GermanStopwords),
		search.WithMinScore(cfg.SearchMinScore),
	}
	if err := syncSvc.RebuildIndex(ctx); err != nil {
		log.Warn().Err(err).Msg("initial search index build failed")
	}

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, httpapi.App{
		DB:       db,
		Index:    index,
		Sync:     syncSvc,
		Notifier: notifier,
	}, cfg); err != nil {
		log.Fatal().Err(err).Msg("route setup failed")
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

	tree := supervisor.NewTree(logr, supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.ShutdownTimeout))

	var trigger scheduler.Trigger
	if cfg.Sync.Enabled {
		if trigger, err = scheduler.NewTrigger(cfg, syncSvc); err != nil {
			log.Fatal().Err(err).Msg("sync trigger setup failed")
		}
	} else {
		log.Info().Msg("scheduled sync disabled (SYNC_ENABLED=false)")
	}
	sched, err := scheduler.New(cfg.Sync, trigger)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	if err := sched.AddJob("@hourly", "idempotency-purge", func(ctx context.Context) error {
		n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now())
		if err == nil && n > 0 {
			log.Info().Int64("removed", n).Msg("expired idempotency keys purged")
		}
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("scheduler setup failed")
	}
	tree.AddJobService(sched)

	log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		log.Error().Err(serveErr).Msg("supervisor tree stopped")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			log.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}
	log.Info().Msg("stopped")
}

// newNotifier returns the Telegram notifier, or a no-op when the bot is
// not configured.
func newNotifier(cfg config.Config) notify.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		log.Info().Msg("telegram notifications disabled")
		return notify.Nop{}
	}
	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, loc)
}

// gormLogLevel maps the process log level onto GORM's logger.
func gormLogLevel(l zerolog.Level) logger.LogLevel {
	switch {
	case l <= zerolog.DebugLevel:
		return logger.Info
	case l <= zerolog.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}
