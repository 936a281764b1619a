package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager applies pending migrations in version order.
type Manager struct {
	source   Source
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger uses slog.Default.
func NewManager(source Source, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration. It stops at the first failure; earlier
// migrations stay applied.
func (m *Manager) Run(ctx context.Context) error {
	start := time.Now()
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if status.PendingCount == 0 {
		m.logger.DebugContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "from_version", status.CurrentVersion, "pending", status.PendingCount)
	for i, migration := range status.PendingMigrations {
		logger := m.logger.With("version", migration.Version, "file", migration.FilePath)
		migrationStart := time.Now()

		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		elapsed := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			logger.ErrorContext(ctx, "recording migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "record migration", err)
		}
		logger.InfoContext(ctx, "migration applied",
			"description", migration.Description,
			"step", fmt.Sprintf("%d/%d", i+1, status.PendingCount),
			"duration", elapsed)
	}

	m.logger.InfoContext(ctx, "migrations complete", "count", status.PendingCount, "duration", time.Since(start))
	return nil
}

// Status compares the available files with schema_migrations.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("initialize version table: %w", err)
	}

	available, err := m.source.ScanMigrations()
	if err != nil {
		return nil, fmt.Errorf("scan migrations: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get applied versions: %w", err)
	}
	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedSet := make(map[string]bool, len(applied))
	status := &Status{AppliedMigrations: applied}
	for _, a := range applied {
		appliedSet[a.Version] = true
		if versionNumber(a.Version) > versionNumber(status.CurrentVersion) {
			status.CurrentVersion = a.Version
		}
	}
	for _, migration := range available {
		if !appliedSet[migration.Version] {
			status.PendingMigrations = append(status.PendingMigrations, migration)
		}
	}
	status.PendingCount = len(status.PendingMigrations)
	return status, nil
}

// validateSequence requires contiguous versions, a file for every applied
// version, and unchanged checksums for applied files.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		byVersion[versionNumber(migration.Version)] = migration
	}
	if len(available) > 0 {
		first := versionNumber(available[0].Version)
		last := versionNumber(available[len(available)-1].Version)
		for v := first; v <= last; v++ {
			if _, ok := byVersion[v]; !ok {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, v)
			}
		}
	}

	for _, a := range applied {
		migration, ok := byVersion[versionNumber(a.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, a.Version)
		}
		if a.Checksum != "" && migration.Checksum != a.Checksum {
			return NewMigrationError(a.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
