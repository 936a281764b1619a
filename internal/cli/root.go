// Package cli implements the jobtracker command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/app"
	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/config"
	"github.com/example/job-tracker/internal/logging"
	"github.com/example/job-tracker/internal/validation"
)

var errNotLoggedIn = errors.New("not logged in, run 'jobtracker login' first")

// Options carries the process streams and the injectable parts of the
// application container.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	App    app.Options
}

type rootFlags struct {
	configDir  string
	configFile string
	envFile    string
	dbPath     string
	verbose    bool
}

// runtime is shared by every command of one invocation.
type runtime struct {
	opts   Options
	flags  rootFlags
	cfg    config.Config
	logger *slog.Logger
	app    *app.App
}

// Execute runs the CLI with args and returns the first error. The error has
// already been printed to Stderr.
func Execute(ctx context.Context, args []string, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	rt := &runtime{opts: opts}
	defer rt.close()

	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(opts.Stderr, errorStyle.Render("Error:")+" "+FormatError(err))
		return err
	}
	return nil
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "jobtracker",
		Short: "Track job applications across job hunting seasons",
		Long: `jobtracker records the jobs you apply to, grouped into seasons, and
follows each application from Applied to Offer. It can also serve the
same data over a JSON API.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return rt.loadConfig(cmd.Name() == "serve")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.configDir, "config-dir", "", "directory holding config.toml and the session file")
	pf.StringVar(&rt.flags.configFile, "config", "", "config file (default <config-dir>/config.toml)")
	pf.StringVar(&rt.flags.envFile, "env-file", "", "dotenv file to load (default .env)")
	pf.StringVar(&rt.flags.dbPath, "db", "", "SQLite database file, overrides database.path")
	pf.BoolVarP(&rt.flags.verbose, "verbose", "v", false, "log service activity to stderr")

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newConfigCommand(rt),
		newRegisterCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newSeasonCommand(rt),
		newJobCommand(rt),
		newStatsCommand(rt),
		newStatusesCommand(rt),
		newVersionCommand(),
	)
	return root
}

func (rt *runtime) loadConfig(requireSecret bool) error {
	cfg, err := config.Load(config.Options{
		Dir:           rt.flags.configDir,
		File:          rt.flags.configFile,
		EnvFile:       rt.flags.envFile,
		RequireSecret: requireSecret,
	})
	if err != nil {
		return err
	}
	if rt.flags.dbPath != "" {
		cfg.Database.Path = rt.flags.dbPath
	}
	rt.cfg = cfg

	level := "error"
	if rt.flags.verbose {
		level = "debug"
	}
	rt.logger = logging.New(logging.Options{
		Level:  level,
		Format: logging.FormatText,
		Output: rt.opts.Stderr,
		Prefix: "jobtracker",
	})
	return nil
}

// open builds the application container on first use.
func (rt *runtime) open(ctx context.Context) (*app.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}
	opts := rt.opts.App
	if opts.Logger == nil {
		opts.Logger = rt.logger
	}
	a, err := app.New(ctx, rt.cfg, opts)
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a, nil
}

func (rt *runtime) now() time.Time {
	if rt.opts.App.Now != nil {
		return rt.opts.App.Now()
	}
	return time.Now()
}

func (rt *runtime) close() {
	if rt.app == nil {
		return
	}
	if err := rt.app.Close(); err != nil && rt.logger != nil {
		rt.logger.Error("failed to close storage", "error", err)
	}
	rt.app = nil
}

// currentUser resolves the user behind the stored session token.
func (rt *runtime) currentUser(ctx context.Context) (*app.App, application.User, application.SessionContext, error) {
	token, err := readToken(rt.cfg.SessionFile())
	if err != nil {
		return nil, application.User{}, application.SessionContext{}, err
	}
	a, err := rt.open(ctx)
	if err != nil {
		return nil, application.User{}, application.SessionContext{}, err
	}

	sc := application.SessionContext{Token: token}
	user, err := a.Auth.CurrentUser(ctx, sc)
	if err != nil {
		if application.IsAuthError(err) {
			return nil, application.User{}, sc, errNotLoggedIn
		}
		return nil, application.User{}, sc, err
	}
	return a, user, sc, nil
}

// FormatError renders err for the terminal. Internal failures show a generic
// message; validation failures list every field.
func FormatError(err error) string {
	if errors.Is(err, errNotLoggedIn) {
		return err.Error()
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) && len(vErr.FieldErrors) > 0 {
		lines := []string{"invalid input"}
		for _, field := range validation.SortedFields(vErr.FieldErrors) {
			lines = append(lines, fmt.Sprintf("  %s %s", labelStyle.Render(field), vErr.FieldErrors[field]))
		}
		return strings.Join(lines, "\n")
	}

	// Flag, config and file errors never pass through the services.
	if application.ErrorKind(err) == application.KindInternal && !errors.Is(err, application.ErrInternal) {
		return err.Error()
	}
	_, message := application.Describe(err)
	return message
}
