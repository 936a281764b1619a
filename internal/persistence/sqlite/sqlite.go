package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/job-tracker/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the connection pool and the repositories built on it.
type Storage struct {
	pool     *ConnectionPool
	logger   *slog.Logger
	Users    *UserRepository
	Seasons  *SeasonRepository
	Jobs     *JobRepository
	Sessions *SessionRepository
}

// Open connects to the database described by cfg. Call Migrate before use on
// a fresh database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pool.retry.logger = logger

	logger.DebugContext(ctx, "database opened", "path", cfg.Path, "driver", cfg.Driver)
	return &Storage{
		pool:     pool,
		logger:   logger,
		Users:    NewUserRepository(pool),
		Seasons:  NewSeasonRepository(pool),
		Jobs:     NewJobRepository(pool),
		Sessions: NewSessionRepository(pool),
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool exposes the connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := s.migrationManager()
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.Status, error) {
	return s.migrationManager().Status(ctx)
}

func (s *Storage) migrationManager() *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB()),
		s.logger,
	)
}
