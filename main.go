package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/isdelr/ender-auth-be/internal/api"
	"github.com/isdelr/ender-auth-be/internal/config"
	"github.com/isdelr/ender-auth-be/internal/database"
	"github.com/isdelr/ender-auth-be/internal/logger"
	"github.com/isdelr/ender-auth-be/internal/monitoring"
	"github.com/isdelr/ender-auth-be/internal/services"
	"github.com/isdelr/ender-auth-be/internal/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logger
	appLog, err := logger.New(logger.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Console: !cfg.IsProduction(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Close()
	lg := appLog.Logger

	// Set up database
	db, err := database.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		lg.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Set up session store
	store, sqliteSessions, closeStore, err := newSessionStore(cfg, db)
	if err != nil {
		lg.Fatal().Err(err).Str("backend", cfg.SessionBackend).Msg("Failed to initialize session store")
	}
	defer closeStore()

	// Expired SQLite sessions are swept in the background; Redis expires keys itself.
	var sweeper *monitoring.SessionSweeper
	if sqliteSessions != nil {
		sweeper = monitoring.NewSessionSweeper(sqliteSessions, cfg.SessionSweepSchedule, lg)
		if err := sweeper.Start(); err != nil {
			lg.Fatal().Err(err).Msg("Failed to start session sweeper")
		}
	}

	userService := services.NewUserService(db, cfg.BcryptCost)
	router := api.NewRouter(db, userService, session.NewManager(store), api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         lg,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		lg.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Str("sessions", cfg.SessionBackend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			lg.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info().Msg("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		lg.Error().Err(err).Msg("Server forced to shutdown")
	}

	lg.Info().Msg("Server exiting")
}

// newSessionStore builds the gorilla store for the configured backend. The
// SQLite backend is returned separately so it can be swept.
func newSessionStore(cfg *config.Config, db *sql.DB) (sessions.Store, *session.SQLiteBackend, func(), error) {
	secret := []byte(cfg.SessionSecret)
	opts := session.DefaultOptions(cfg.SessionMaxAge, cfg.IsProduction())
	noop := func() {}

	switch cfg.SessionBackend {
	case config.SessionBackendCookie:
		store := sessions.NewCookieStore(secret)
		session.Configure(store, opts)
		return store, nil, noop, nil

	case config.SessionBackendRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		store := session.NewServerStore(session.NewRedisBackend(client, ""), secret)
		session.Configure(store, opts)
		return store, nil, func() { client.Close() }, nil

	default:
		backend := session.NewSQLiteBackend(db)
		store := session.NewServerStore(backend, secret)
		session.Configure(store, opts)
		return store, backend, noop, nil
	}
}
