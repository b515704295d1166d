package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/appstore"
	"github.com/example/timetable-share/internal/config"
	httptransport "github.com/example/timetable-share/internal/http"
	"github.com/example/timetable-share/internal/logging"
	"github.com/example/timetable-share/internal/persistence"
	"github.com/example/timetable-share/internal/persistence/memory"
	"github.com/example/timetable-share/internal/persistence/mongodb"
	"github.com/example/timetable-share/internal/persistence/sqlite"
	"github.com/example/timetable-share/internal/persistence/sqlite/migration"
	"github.com/example/timetable-share/internal/rediscache"
)

const (
	localCacheEntries    = 4096
	sessionSweepInterval = 15 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("timetable service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, health, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	cache, closeCache, err := newGridCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	app := newApplication(store, cache, cfg, time.Now, logger)
	go sweepExpiredSessions(ctx, app.sessions, time.Now, sessionSweepInterval, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler(cfg, health),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("timetable API listening", "addr", server.Addr, "store", cfg.Store, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// openStore opens the configured backend and returns it with a reachability probe.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, httptransport.HealthCheck, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := store.Migrate(ctx, logger); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Pool().Ping, nil
	case config.StoreMongo:
		store, err := mongodb.Open(ctx, mongodb.Config{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Ping, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newGridCache returns the Redis cache when an address is configured and an
// in-process cache otherwise.
func newGridCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (application.GridCache, func(), error) {
	if cfg.RedisAddr == "" {
		return application.NewLocalGridCache(cfg.GridCacheTTL, localCacheEntries, time.Now), func() {}, nil
	}
	client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return rediscache.New(client, rediscache.Config{TTL: cfg.GridCacheTTL}, logger), closeFn, nil
}

// services holds the wired application layer.
type services struct {
	auth      *application.AuthService
	profile   *application.ProfileService
	timetable *application.TimetableService
	friends   *application.FriendService
	sessions  application.SessionRepository
	logger    *slog.Logger
}

func newApplication(store persistence.Store, cache application.GridCache, cfg config.Config, now func() time.Time, logger *slog.Logger) *services {
	repo := appstore.New(store)
	schedule := application.ScheduleContext{Location: cfg.Location, Now: now}

	return &services{
		auth: application.NewAuthServiceWithLogger(application.AuthServiceDeps{
			Accounts:       repo,
			Sessions:       repo,
			Grids:          repo,
			Friends:        repo,
			Cache:          cache,
			IDGenerator:    uuid.NewString,
			TokenGenerator: func() string { return randomHex(32) },
			Now:            now,
			SessionTTL:     cfg.SessionTTL,
		}, logger),
		profile:   application.NewProfileService(repo, now),
		timetable: application.NewTimetableServiceWithLogger(repo, cache, schedule, logger),
		friends:   application.NewFriendServiceWithLogger(repo, repo, repo, cache, schedule, cfg.RosterConcurrency, logger),
		sessions:  repo,
		logger:    logger,
	}
}

func (s *services) handler(cfg config.Config, health httptransport.HealthCheck) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(s.auth, s.logger),
		Profile:       httptransport.NewProfileHandler(s.profile, s.logger),
		Timetable:     httptransport.NewTimetableHandler(s.timetable, s.logger),
		Friends:       httptransport.NewFriendHandler(s.friends, s.logger),
		Session:       httptransport.RequireSession(s.auth, s.logger),
		AuthRateLimit: httptransport.RateLimitByIP(cfg.LoginRateLimit, s.logger),
		Health:        health,
		Logger:        s.logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(s.logger),
			httptransport.CORS(cfg.CORSOrigins),
		},
	})
}

// sweepExpiredSessions deletes expired sessions every interval until ctx is done.
func sweepExpiredSessions(ctx context.Context, sessions application.SessionRepository, now func() time.Time, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.DeleteExpiredSessions(ctx, now()); err != nil && ctx.Err() == nil {
				logger.Warn("failed to delete expired sessions", "error", err)
			}
		}
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
