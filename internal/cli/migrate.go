package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt.opts.App.SkipMigrate = true
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !statusOnly {
				before, err := a.Storage.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				if err := a.Storage.Migrate(ctx); err != nil {
					return err
				}
				success(out, "Applied %d migration(s) to %s.", before.PendingCount, rt.cfg.Database.Path)
			}

			status, err := a.Storage.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			current := status.CurrentVersion
			if current == "" {
				current = "none"
			}
			field(out, "Schema version", current)
			field(out, "Applied", fmt.Sprint(len(status.AppliedMigrations)))
			field(out, "Pending", fmt.Sprint(status.PendingCount))
			for _, m := range status.PendingMigrations {
				fmt.Fprintf(out, "  %s %s\n", m.Version, mutedStyle.Render(m.Description))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only report the schema state")
	return cmd
}
