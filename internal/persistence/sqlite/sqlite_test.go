package sqlite

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	storage, err := Open(context.Background(), TempFileConfig(path), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "mattn driver", mutate: func(c *Config) { c.Driver = DriverMattn }},
		{name: "empty path", mutate: func(c *Config) { c.Path = " " }, wantErr: "path cannot be empty"},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "postgres" }, wantErr: "unsupported driver"},
		{name: "journal mode", mutate: func(c *Config) { c.JournalMode = "fast" }, wantErr: "invalid journal mode"},
		{name: "synchronous", mutate: func(c *Config) { c.Synchronous = "sometimes" }, wantErr: "invalid synchronous mode"},
		{name: "negative pool", mutate: func(c *Config) { c.MaxOpenConns = -1 }, wantErr: "cannot be negative"},
		{name: "negative retries", mutate: func(c *Config) { c.LockRetries = -1 }, wantErr: "cannot be negative"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig("tracker.db")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	t.Parallel()

	t.Run("modernc pragmas", func(t *testing.T) {
		t.Parallel()

		dsn := DefaultConfig("data/tracker.db").DSN()
		if !strings.HasPrefix(dsn, "file:data/tracker.db?") {
			t.Fatalf("unexpected prefix: %s", dsn)
		}
		query, err := url.ParseQuery(strings.SplitN(dsn, "?", 2)[1])
		if err != nil {
			t.Fatalf("parse query: %v", err)
		}
		pragmas := strings.Join(query["_pragma"], ",")
		for _, want := range []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)", "synchronous(NORMAL)"} {
			if !strings.Contains(pragmas, want) {
				t.Fatalf("expected pragma %s in %s", want, pragmas)
			}
		}
	})

	t.Run("mattn parameters", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig("tracker.db")
		cfg.Driver = DriverMattn
		cfg.BusyTimeout = 2 * time.Second
		query, err := url.ParseQuery(strings.SplitN(cfg.DSN(), "?", 2)[1])
		if err != nil {
			t.Fatalf("parse query: %v", err)
		}
		if query.Get("_foreign_keys") != "on" || query.Get("_busy_timeout") != "2000" || query.Get("_journal_mode") != "WAL" {
			t.Fatalf("unexpected mattn parameters: %v", query)
		}
	})
}

func TestStorageOpenAndMigrate(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t)
	ctx := context.Background()

	if err := storage.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	status, err := storage.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if len(status.AppliedMigrations) != 4 || status.PendingCount != 0 || status.CurrentVersion != "004" {
		t.Fatalf("expected 4 applied and no pending migrations, got %#v", status)
	}

	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate should be a no-op, got %v", err)
	}

	var fk int
	if err := storage.Pool().DB().QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign keys to be enforced")
	}
}

func TestStorageInMemory(t *testing.T) {
	t.Parallel()

	storage, err := Open(context.Background(), DefaultConfig(":memory:"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer storage.Close()

	if got := storage.Pool().DB().Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected a single connection for :memory:, got %d", got)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("tracker.db")
	cfg.Driver = "mysql"
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected invalid driver to be rejected")
	}
}

func TestStorageDoesNotRetryByDefault(t *testing.T) {
	t.Parallel()

	if retries := DefaultConfig("tracker.db").LockRetries; retries != 0 {
		t.Fatalf("expected no lock retries by default, got %d", retries)
	}

	storage := newTestStorage(t)
	if retries := storage.Pool().retry.config.MaxRetries; retries != 0 {
		t.Fatalf("expected the pool to surface busy errors at once, got %d retries", retries)
	}
}
