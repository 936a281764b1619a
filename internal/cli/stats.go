package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/config"
)

const barWidth = 20

func newStatsCommand(rt *runtime) *cobra.Command {
	var season int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show application counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			stats, err := a.Tracker.Statistics(ctx, user.ID, seasonFlag(season))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if stats.SeasonID == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No season to report on. Start one with 'jobtracker season create <name>'."))
				return nil
			}
			title := "Statistics"
			if s, err := a.Tracker.GetSeason(ctx, user.ID, stats.SeasonID); err == nil {
				title = "Statistics for " + s.Name
			}

			fmt.Fprintln(out, titleStyle.Render(title))
			field(out, "Total applications", fmt.Sprint(stats.TotalJobs))
			if stats.TotalJobs == 0 {
				return nil
			}
			fmt.Fprintln(out)
			for _, status := range application.AllJobStatuses() {
				count := stats.StatusBreakdown[status]
				if count == 0 {
					continue
				}
				share := float64(count) / float64(stats.TotalJobs)
				bar := strings.Repeat("█", max(1, int(share*barWidth)))
				fmt.Fprintf(out, "  %-20s %3d  %5.1f%%  %s\n",
					string(status), count, share*100, statusStyle(status).Render(bar))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&season, "season", 0, "season id (default active season)")
	return cmd
}

func newStatusesCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List the statuses an application can have",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, status := range application.AllJobStatuses() {
				fmt.Fprintln(out, statusStyle(status).Render(string(status)))
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.Version)
		},
	}
}
