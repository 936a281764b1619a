package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/job-tracker/internal/persistence"
	"github.com/example/job-tracker/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a migrated SQLite file in
// a test temp directory.
type SQLiteHarness struct {
	Storage  *sqlite.Storage
	Users    persistence.UserRepository
	Seasons  persistence.SeasonRepository
	Jobs     persistence.JobRepository
	Sessions persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a fresh database. The harness closes
// itself through tb.Cleanup; calling Close earlier is allowed.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "tracker.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(context.Background(), sqlite.TempFileConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:  storage,
		Users:    storage.Users,
		Seasons:  storage.Seasons,
		Jobs:     storage.Jobs,
		Sessions: storage.Sessions,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser stores a user built from opts and returns it with its id.
func (h *SQLiteHarness) SeedUser(tb testing.TB, opts ...UserOption) persistence.User {
	tb.Helper()
	user, err := h.Users.CreateUser(context.Background(), NewUserFixture(opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedSeason stores a new active season for userID.
func (h *SQLiteHarness) SeedSeason(tb testing.TB, userID int64, opts ...SeasonOption) persistence.Season {
	tb.Helper()
	season, err := h.Seasons.CreateActiveSeason(context.Background(), NewSeasonFixture(userID, opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to seed season: %v", err)
	}
	return season
}

// SeedJob stores a job in seasonID for userID.
func (h *SQLiteHarness) SeedJob(tb testing.TB, userID, seasonID int64, opts ...JobOption) persistence.Job {
	tb.Helper()
	job, err := h.Jobs.CreateJob(context.Background(), NewJobFixture(userID, seasonID, opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to seed job: %v", err)
	}
	return job
}
