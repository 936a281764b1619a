package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line, for servers.
	FormatJSON Format = "json"
	// FormatText writes colored human readable lines, for terminals.
	FormatText Format = "text"
)

// Options configures New.
type Options struct {
	Level  string
	Format Format
	Output io.Writer
	// Prefix labels console output, e.g. the command name.
	Prefix string
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger. JSON output uses the standard slog handler; text output
// goes through charmbracelet/log, which implements slog.Handler.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := ParseLevel(opts.Level)

	if opts.Format == FormatText {
		console := log.NewWithOptions(out, log.Options{
			Level:           log.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          opts.Prefix,
		})
		return slog.New(console)
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
