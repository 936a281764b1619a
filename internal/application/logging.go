package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/job-tracker/internal/logging"
)

// Stable error kind labels shared by logs and transport responses.
const (
	KindValidation = "validation"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindAuth       = "auth"
	KindInternal   = "internal"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case IsAuthError(err):
		return KindAuth
	}
	return KindInternal
}

// Describe returns the (kind, message) pair shown to callers. Internal errors
// never expose their underlying text.
func Describe(err error) (kind, message string) {
	if err == nil {
		return "", ""
	}
	kind = ErrorKind(err)
	if kind == KindInternal {
		return kind, ErrInternal.Error()
	}
	return kind, err.Error()
}

// logOutcome writes the single result line every service operation emits.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, failure, success string, attrs ...any) {
	if err != nil {
		level := slog.LevelError
		if kind := ErrorKind(err); kind != KindInternal {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, failure, "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.With(attrs...).InfoContext(ctx, success)
}
