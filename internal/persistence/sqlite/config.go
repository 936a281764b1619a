package sqlite

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Supported database/sql driver names.
const (
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver registered by github.com/mattn/go-sqlite3.
	DriverMattn = "sqlite3"
)

// Config describes how to open the tracker database.
type Config struct {
	// Path is the database file. ":memory:" is accepted for throwaway databases.
	Path            string
	Driver          string
	BusyTimeout     time.Duration
	JournalMode     string
	Synchronous     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// LockRetries re-runs a statement that failed with SQLITE_BUSY after the
	// busy timeout elapsed. Zero, the default, leaves lock errors to the
	// caller; only an operator setting database.lock_retries enables retries.
	LockRetries int
}

// DefaultConfig returns production settings for the database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		Driver:          DriverModernc,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// TempFileConfig returns settings tuned for tests against a temporary file.
func TempFileConfig(path string) Config {
	cfg := DefaultConfig(path)
	cfg.JournalMode = "MEMORY"
	cfg.Synchronous = "OFF"
	cfg.ConnMaxLifetime = time.Minute
	return cfg
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// Validate checks the configuration before a connection is opened.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("sqlite: database path cannot be empty")
	}
	if c.Driver != DriverModernc && c.Driver != DriverMattn {
		return fmt.Errorf("sqlite: unsupported driver %q (want %q or %q)", c.Driver, DriverModernc, DriverMattn)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy timeout cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("sqlite: invalid journal mode %q", c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("sqlite: invalid synchronous mode %q", c.Synchronous)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 || c.LockRetries < 0 {
		return fmt.Errorf("sqlite: connection pool settings cannot be negative")
	}
	return nil
}

// DSN renders the connection string. Pragmas go in the DSN so every pooled
// connection gets them, and each driver spells them differently.
func (c Config) DSN() string {
	values := url.Values{}
	timeoutMs := c.BusyTimeout.Milliseconds()

	switch c.Driver {
	case DriverMattn:
		values.Set("_foreign_keys", "on")
		values.Set("_busy_timeout", fmt.Sprint(timeoutMs))
		if c.JournalMode != "" {
			values.Set("_journal_mode", strings.ToUpper(c.JournalMode))
		}
		if c.Synchronous != "" {
			values.Set("_synchronous", strings.ToUpper(c.Synchronous))
		}
	default:
		values.Add("_pragma", "foreign_keys(1)")
		values.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeoutMs))
		if c.JournalMode != "" {
			values.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
		}
		if c.Synchronous != "" {
			values.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
		}
	}

	return "file:" + c.Path + "?" + values.Encode()
}

func (c Config) inMemory() bool {
	return c.Path == ":memory:"
}

// ensureDirectory creates the parent directory of the database file.
func (c Config) ensureDirectory() error {
	if c.inMemory() {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlite: create database directory %s: %w", dir, err)
	}
	return nil
}
