package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/application"
)

func newRegisterCommand(rt *runtime) *cobra.Command {
	var params application.RegisterParams
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Example: `  jobtracker register --username alice --email alice@example.com --full-name "Alice Doe"
  echo "$PASSWORD" | jobtracker register --username alice --email alice@example.com --full-name "Alice Doe"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			password, err := passwordInput(cmd)
			if err != nil {
				return err
			}
			params.Password = password

			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			user, err := a.Auth.Register(ctx, params)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Registered %s (id %d). Log in with 'jobtracker login --user %s'.", user.Username, user.ID, user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Username, "username", "", "login name: letters, digits and underscores")
	cmd.Flags().StringVar(&params.Email, "email", "", "email address")
	cmd.Flags().StringVar(&params.FullName, "full-name", "", "display name")
	cmd.Flags().String("password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func newLoginCommand(rt *runtime) *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			password, err := passwordInput(cmd)
			if err != nil {
				return err
			}

			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			result, err := a.Auth.Authenticate(ctx, application.AuthenticateParams{Login: login, Password: password})
			if err != nil {
				return err
			}
			if err := writeToken(rt.cfg.SessionFile(), result.Session.Token); err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "Logged in as %s. Session expires %s.",
				result.User.Username, result.Session.ExpiresAt.Local().Format("Jan 2, 2006 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&login, "user", "u", "", "username or email")
	cmd.Flags().String("password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := rt.cfg.SessionFile()
			token, err := readToken(path)
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Not logged in."))
				return nil
			}
			if err != nil {
				return err
			}

			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			if err := a.Auth.Logout(ctx, application.SessionContext{Token: token}); err != nil && !application.IsAuthError(err) {
				return err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove session file: %w", err)
			}
			success(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, user, _, err := rt.currentUser(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(user.FullName))
			field(out, "Username", user.Username)
			field(out, "Email", user.Email)
			field(out, "Member since", formatDate(user.CreatedAt))
			if user.LastLogin != nil {
				field(out, "Last login", user.LastLogin.Local().Format("Jan 2, 2006 15:04"))
			}
			return nil
		},
	}
}

// passwordInput takes --password or the first line of stdin.
func passwordInput(cmd *cobra.Command) (string, error) {
	if password, _ := cmd.Flags().GetString("password"); password != "" {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", application.NewValidationError("password", "is required")
	}
	return password, nil
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
