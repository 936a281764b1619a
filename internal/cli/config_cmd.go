package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/config"
)

func newConfigCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(rt), newConfigShowCommand(rt))
	return cmd
}

func newConfigInitCommand(rt *runtime) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write config.toml with the current settings and a fresh session secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg
			if cfg.Session.Secret == "" {
				secret, err := newSecret()
				if err != nil {
					return err
				}
				cfg.Session.Secret = secret
			}

			path := rt.flags.configFile
			if path == "" {
				path = filepath.Join(cfg.Dir, config.FileName)
			}
			if err := cfg.WriteFile(path, force); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s.", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg
			if cfg.Session.Secret != "" {
				cfg.Session.Secret = "********"
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := cfg.File
			if source == "" {
				source = "defaults and environment"
			}
			fmt.Fprintln(out, mutedStyle.Render("# source: "+source))
			_, err = out.Write(data)
			return err
		},
	}
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
