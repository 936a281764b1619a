package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is shown in CLI banners and the health endpoint.
	AppName = "Job Application Tracker"
	// Version is the release of the tracker.
	Version = "1.0.0"

	// EnvPrefix namespaces every environment override, e.g. JOBTRACKER_HTTP_PORT.
	EnvPrefix = "JOBTRACKER"
	// FileName is the config file looked up in the config directory.
	FileName = "config.toml"
)

// Config captures the settings shared by the HTTP server and the CLI.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Session  SessionConfig
	Log      LogConfig

	// Dir holds config.toml and the CLI session file.
	Dir string
	// File is the config file that was read, empty when none was found.
	File string
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the SQLite file and driver.
type DatabaseConfig struct {
	Path        string
	Driver      string
	BusyTimeout time.Duration
	// LockRetries is an operator override. The default of zero means storage
	// errors, busy ones included, reach the caller on the first failure.
	LockRetries int
}

// SessionConfig controls login sessions and the signed session cookie.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// Options tune where Load looks for its inputs.
type Options struct {
	// Dir overrides the config directory. Defaults to $JOBTRACKER_CONFIG_DIR,
	// then <user config dir>/jobtracker.
	Dir string
	// File overrides <Dir>/config.toml.
	File string
	// EnvFile is loaded with godotenv before reading the environment. Defaults
	// to ".env"; a missing file is ignored.
	EnvFile string
	// RequireSecret fails the load when session.secret is empty.
	RequireSecret bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("database.path", "job_tracker.db")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.lock_retries", 0)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cookie_name", "jobtracker_session")
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load merges defaults, the optional TOML config file, a .env file and
// JOBTRACKER_* environment variables, in increasing priority. Every invalid
// key is reported in one error.
func Load(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	dir, err := resolveDir(opts.Dir)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	file := opts.File
	if file == "" {
		file = filepath.Join(dir, FileName)
	}
	cfg := Config{Dir: dir}
	if _, statErr := os.Stat(file); statErr == nil {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		cfg.File = file
	} else if opts.File != "" {
		return Config{}, fmt.Errorf("config file %s: %w", file, statErr)
	}

	var invalid []string
	positiveInt := func(key string, allowZero bool) int {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n < 0 || (n == 0 && !allowZero) {
			invalid = append(invalid, key)
		}
		return n
	}
	positiveDuration := func(key string) time.Duration {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
		}
		return d
	}
	oneOf := func(key string, allowed ...string) string {
		value := strings.ToLower(strings.TrimSpace(v.GetString(key)))
		for _, candidate := range allowed {
			if value == candidate {
				return value
			}
		}
		invalid = append(invalid, key)
		return value
	}

	cfg.HTTP = HTTPConfig{
		Port:            positiveInt("http.port", false),
		ShutdownTimeout: positiveDuration("http.shutdown_timeout"),
	}
	if cfg.HTTP.Port > 65535 {
		invalid = append(invalid, "http.port")
	}

	cfg.Database = DatabaseConfig{
		Path:        strings.TrimSpace(v.GetString("database.path")),
		Driver:      oneOf("database.driver", "sqlite", "sqlite3"),
		BusyTimeout: positiveDuration("database.busy_timeout"),
		LockRetries: positiveInt("database.lock_retries", true),
	}
	if cfg.Database.Path == "" {
		invalid = append(invalid, "database.path")
	}

	cfg.Session = SessionConfig{
		Secret:       strings.TrimSpace(v.GetString("session.secret")),
		TTL:          positiveDuration("session.ttl"),
		CookieName:   strings.TrimSpace(v.GetString("session.cookie_name")),
		CookieSecure: v.GetBool("session.cookie_secure"),
	}
	if cfg.Session.CookieName == "" {
		invalid = append(invalid, "session.cookie_name")
	}

	cfg.Log = LogConfig{
		Level:  oneOf("log.level", "debug", "info", "warn", "error"),
		Format: oneOf("log.format", "json", "text"),
	}

	if opts.RequireSecret && cfg.Session.Secret == "" {
		return Config{}, fmt.Errorf("missing required setting: session.secret (set %s_SESSION_SECRET)", EnvPrefix)
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SessionFile is where the CLI keeps the token of the logged in user.
func (c Config) SessionFile() string {
	return filepath.Join(c.Dir, "session")
}

func resolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := strings.TrimSpace(os.Getenv(EnvKey("config_dir"))); env != "" {
		return env, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "jobtracker"), nil
}
