package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/app"
	"github.com/example/job-tracker/internal/config"
	httptransport "github.com/example/job-tracker/internal/http"
	"github.com/example/job-tracker/internal/logging"
)

func newServeCommand(rt *runtime) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `serve runs the HTTP API until interrupted. It requires a session secret
(session.secret or JOBTRACKER_SESSION_SECRET) to sign session cookies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				rt.cfg.HTTP.Port = port
			}
			rt.logger = logging.New(logging.Options{
				Level:  rt.cfg.Log.Level,
				Format: logging.Format(rt.cfg.Log.Format),
				Output: rt.opts.Stderr,
			})

			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}

			listener, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.cfg.HTTP.Port))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}
			return Serve(ctx, a, listener, rt.now)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides http.port")
	return cmd
}

// NewHandler wires the HTTP API on top of the application container.
func NewHandler(a *app.App, now func() time.Time) http.Handler {
	cfg := a.Config
	logger := a.Logger
	cookies := httptransport.NewCookieSessions(httptransport.CookieConfig{
		Secret: []byte(cfg.Session.Secret),
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.TTL,
	})
	metrics := httptransport.NewMetrics()

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(a.Auth, cookies, metrics, logger),
		Seasons:  httptransport.NewSeasonHandler(a.Tracker, now, logger),
		Jobs:     httptransport.NewJobHandler(a.Tracker, now, logger),
		Sessions: a.Auth,
		Cookies:  cookies,
		Metrics:  metrics,
		Logger:   logger,
		Version:  config.Version,
	})
}

// Serve answers requests on listener until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func Serve(ctx context.Context, a *app.App, listener net.Listener, now func() time.Time) error {
	logger := a.Logger
	server := &http.Server{
		Handler:           NewHandler(a, now),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("job tracker API listening", "addr", listener.Addr().String(), "version", config.Version)
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server encountered error: %w", err)
	case <-ctx.Done():
	}

	timeout := a.Config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
