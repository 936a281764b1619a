package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/job-tracker/internal/application"
)

func newSeasonCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "season",
		Aliases: []string{"seasons"},
		Short:   "Manage job hunting seasons",
		Long:    "A season groups the applications of one job hunt. Only one season is active at a time.",
	}
	cmd.AddCommand(
		newSeasonCreateCommand(rt),
		newSeasonEndCommand(rt),
		newSeasonListCommand(rt),
		newSeasonActiveCommand(rt),
		newSeasonDeleteCommand(rt),
	)
	return cmd
}

func newSeasonCreateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name>",
		Short:   "Start a new season, ending the active one",
		Example: `  jobtracker season create "Fall 2024"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			previous, prevErr := a.Tracker.ActiveSeason(ctx, user.ID)
			season, err := a.Tracker.CreateSeason(ctx, user.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if prevErr == nil {
				fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Ended season %q.", previous.Name)))
			}
			success(out, "Started season %q (id %d).", season.Name, season.ID)
			return nil
		},
	}
}

func newSeasonEndCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			season, err := a.Tracker.EndCurrentSeason(ctx, user.ID)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Ended season %q after %d days.", season.Name, season.DurationDays(rt.now()))
			return nil
		},
	}
}

func newSeasonListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every season, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			seasons, err := a.Tracker.ListSeasons(ctx, user.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(seasons) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No seasons yet. Start one with 'jobtracker season create <name>'."))
				return nil
			}

			now := rt.now()
			rows := make([][]string, 0, len(seasons))
			for _, season := range seasons {
				end, state := "", ""
				if season.EndDate != nil {
					end = formatDate(*season.EndDate)
				}
				if season.IsActive {
					state = successStyle.Render("active")
				}
				rows = append(rows, []string{
					strconv.FormatInt(season.ID, 10),
					season.Name,
					formatDate(season.StartDate),
					end,
					strconv.Itoa(season.DurationDays(now)),
					state,
				})
			}
			fmt.Fprintln(out, titleStyle.Render("Seasons"))
			fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Started", "Ended", "Days", ""}, rows))
			return nil
		},
	}
}

func newSeasonActiveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			season, err := a.Tracker.ActiveSeason(ctx, user.ID)
			if errors.Is(err, application.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No active season. Start one with 'jobtracker season create <name>'."))
				return nil
			}
			if err != nil {
				return err
			}
			stats, err := a.Tracker.Statistics(ctx, user.ID, &season.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(season.Name))
			field(out, "ID", strconv.FormatInt(season.ID, 10))
			field(out, "Started", formatDate(season.StartDate))
			field(out, "Days", strconv.Itoa(season.DurationDays(rt.now())))
			field(out, "Applications", strconv.Itoa(stats.TotalJobs))
			return nil
		},
	}
}

func newSeasonDeleteCommand(rt *runtime) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a season and all of its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "season")
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			season, err := a.Tracker.GetSeason(ctx, user.ID, id)
			if err != nil {
				return err
			}
			if !confirmed {
				stats, err := a.Tracker.Statistics(ctx, user.ID, &season.ID)
				if err != nil {
					return err
				}
				return fmt.Errorf("deleting season %q removes its %d jobs, pass --yes to confirm", season.Name, stats.TotalJobs)
			}

			if err := a.Tracker.DeleteSeason(ctx, user.ID, id); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted season %q.", season.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "delete without asking")
	return cmd
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, application.NewValidationError(what+"_id", "must be a positive number")
	}
	return id, nil
}
