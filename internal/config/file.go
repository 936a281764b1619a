package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrFileExists is returned by WriteFile when the target exists and overwrite
// was not requested.
var ErrFileExists = errors.New("config file already exists")

type fileHTTP struct {
	Port            int    `toml:"port"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

type fileDatabase struct {
	Path        string `toml:"path"`
	Driver      string `toml:"driver"`
	BusyTimeout string `toml:"busy_timeout"`
	LockRetries int    `toml:"lock_retries"`
}

type fileSession struct {
	Secret       string `toml:"secret"`
	TTL          string `toml:"ttl"`
	CookieName   string `toml:"cookie_name"`
	CookieSecure bool   `toml:"cookie_secure"`
}

type fileLog struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// fileLayout mirrors the keys Load understands.
type fileLayout struct {
	HTTP     fileHTTP     `toml:"http"`
	Database fileDatabase `toml:"database"`
	Session  fileSession  `toml:"session"`
	Log      fileLog      `toml:"log"`
}

const fileHeader = `# Job Application Tracker configuration.
# Every key can be overridden with a JOBTRACKER_* environment variable,
# e.g. JOBTRACKER_HTTP_PORT or JOBTRACKER_SESSION_SECRET.
# database.lock_retries is an operator override; at 0 a busy database
# error is returned as is.

`

// Encode renders c as a config.toml document.
func (c Config) Encode() ([]byte, error) {
	layout := fileLayout{
		HTTP: fileHTTP{Port: c.HTTP.Port, ShutdownTimeout: c.HTTP.ShutdownTimeout.String()},
		Database: fileDatabase{
			Path:        c.Database.Path,
			Driver:      c.Database.Driver,
			BusyTimeout: c.Database.BusyTimeout.String(),
			LockRetries: c.Database.LockRetries,
		},
		Session: fileSession{
			Secret:       c.Session.Secret,
			TTL:          c.Session.TTL.String(),
			CookieName:   c.Session.CookieName,
			CookieSecure: c.Session.CookieSecure,
		},
		Log: fileLog{Level: c.Log.Level, Format: c.Log.Format},
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(layout); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile stores c at path with owner-only permissions since it may hold
// the session secret.
func (c Config) WriteFile(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}

	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
