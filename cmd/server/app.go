package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/events"
	"github.com/phrazzld/taskwatch/internal/platform/statusapi"
	"github.com/phrazzld/taskwatch/internal/service/auth"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/tracker"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	durable store.DurableStore
	feed    *events.RecentBuffer
	tracker *tracker.Tracker

	// jwtService is nil when authentication is disabled.
	jwtService auth.JWTService

	shutdownTimeout time.Duration
}

type appOptions struct {
	fetcher tracker.Fetcher
	clock   tracker.Clock
}

type appOption func(*appOptions)

// withFetcher replaces the HTTP status client.
func withFetcher(f tracker.Fetcher) appOption {
	return func(o *appOptions) { o.fetcher = f }
}

// withClock replaces the wall clock driving the poll loop.
func withClock(c tracker.Clock) appOption {
	return func(o *appOptions) { o.clock = c }
}

// newApplication assembles the storage backend, the status client, the
// notification pipeline and the tracker. Polling is not resumed until run.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...appOption,
) (*application, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &application{
		config:          cfg,
		logger:          logger,
		shutdownTimeout: 10 * time.Second,
	}

	var err error
	app.durable, app.db, err = openDurableStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher, err = statusapi.NewClient(cfg.StatusAPI, logger)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to create status client: %w", err)
		}
	}

	emitter := events.NewInMemoryEmitter(logger)
	emitter.RegisterHandler(events.NewLogHandler(logger))
	app.feed = events.NewRecentBuffer(cfg.Tracker.RecentNotifications)
	emitter.RegisterHandler(app.feed)

	app.tracker, err = tracker.New(ctx, tracker.Deps{
		Durable: app.durable,
		Fetcher: fetcher,
		Emitter: emitter,
		Clock:   o.clock,
		Logger:  logger,
	}, trackerConfig(cfg), cfg.Tracker.NotificationsEnabled)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	if cfg.Auth.AuthEnabled() {
		app.jwtService, err = auth.NewJWTService(cfg.Auth)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		logger.Info("JWT authentication enabled for mutating routes",
			"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)
	} else {
		logger.Warn("JWT authentication disabled; mutating routes are open")
	}

	return app, nil
}

func trackerConfig(cfg *config.Config) tracker.Config {
	tc := tracker.DefaultConfig()
	tc.PollInterval = cfg.Tracker.PollInterval
	tc.GracePeriod = cfg.Tracker.GracePeriod
	tc.MaxBackoff = cfg.Tracker.MaxBackoff
	tc.PollDuringGrace = cfg.Tracker.PollDuringGrace
	if cfg.StatusAPI.Timeout > 0 {
		tc.FetchTimeout = cfg.StatusAPI.Timeout
	}
	return tc
}

// recoverTracking resumes polling for a job persisted by a previous run.
func (app *application) recoverTracking(ctx context.Context) {
	resumed, err := app.tracker.Recover(ctx)
	if err != nil {
		app.logger.Error("failed to resume tracked task", "error", err)
		return
	}
	if resumed {
		app.logger.Info("resumed tracked task", "task_id", app.tracker.State.Get().TaskID)
	}
}

// cleanup stops polling and releases the database. It is safe to call on a
// partially initialized application.
func (app *application) cleanup() {
	if app.tracker != nil {
		app.tracker.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
		app.db = nil
	}
}
