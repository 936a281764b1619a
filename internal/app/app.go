// Package app wires configuration, storage and the application services into
// a single container shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/config"
	"github.com/example/job-tracker/internal/persistence/sqlite"
)

// App owns the open database and the services built on it.
type App struct {
	Config  config.Config
	Storage *sqlite.Storage
	Auth    *application.AuthManager
	Tracker *application.TrackerService
	Logger  *slog.Logger
}

// Options carries the injectable parts of the container. Zero values use
// production defaults.
type Options struct {
	Logger *slog.Logger
	// Now replaces the wall clock.
	Now func() time.Time
	// Hasher replaces argon2id hashing with default parameters.
	Hasher application.PasswordHasher
	// TokenGenerator replaces random session tokens.
	TokenGenerator func() string
	// SkipMigrate leaves the schema untouched on open.
	SkipMigrate bool
}

// StorageConfig derives the SQLite settings from the loaded configuration.
func StorageConfig(cfg config.Config) sqlite.Config {
	sc := sqlite.DefaultConfig(cfg.Database.Path)
	if cfg.Database.Driver != "" {
		sc.Driver = cfg.Database.Driver
	}
	if cfg.Database.BusyTimeout > 0 {
		sc.BusyTimeout = cfg.Database.BusyTimeout
	}
	sc.LockRetries = cfg.Database.LockRetries
	return sc
}

// New opens the database, applies migrations and builds the services.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := sqlite.Open(ctx, StorageConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if !opts.SkipMigrate {
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return &App{
		Config:  cfg,
		Storage: storage,
		Auth: application.NewAuthManagerWithLogger(
			newUserStore(storage.Users),
			newSessionStore(storage.Sessions),
			opts.Hasher,
			nil,
			opts.TokenGenerator,
			opts.Now,
			cfg.Session.TTL,
			logger,
		),
		Tracker: application.NewTrackerServiceWithLogger(
			newSeasonStore(storage.Seasons),
			newJobStore(storage.Jobs),
			opts.Now,
			logger,
		),
		Logger: logger,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.Storage.Close()
}
