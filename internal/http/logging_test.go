package http

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/job-tracker/internal/application"
)

func TestHandlerLogger(t *testing.T) {
	t.Parallel()

	newBuffered := func() (*bytes.Buffer, *slog.Logger) {
		var buf bytes.Buffer
		return &buf, slog.New(slog.NewTextHandler(&buf, nil))
	}

	t.Run("tags authenticated requests with the user id", func(t *testing.T) {
		t.Parallel()

		buf, logger := newBuffered()
		ctx := ContextWithUser(ContextWithLogger(context.Background(), logger), application.User{ID: 42})

		handlerLogger(ctx, nil, "JobHandler", "Create", "job_id", int64(9)).Info("job created")

		line := buf.String()
		for _, want := range []string{"handler=JobHandler", "operation=Create", "user_id=42", "job_id=9"} {
			if !strings.Contains(line, want) {
				t.Fatalf("expected %q in %q", want, line)
			}
		}
	})

	t.Run("anonymous requests use the fallback without a user id", func(t *testing.T) {
		t.Parallel()

		buf, fallback := newBuffered()

		handlerLogger(context.Background(), fallback, "AuthHandler", "").Info("login attempt")

		line := buf.String()
		if !strings.Contains(line, "handler=AuthHandler") {
			t.Fatalf("expected fallback logger to be used, got %q", line)
		}
		if strings.Contains(line, "user_id") || strings.Contains(line, "operation=") {
			t.Fatalf("unexpected attributes in %q", line)
		}
	})
}
