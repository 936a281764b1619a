package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/validation"
)

func newJobCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "job",
		Aliases: []string{"jobs"},
		Short:   "Manage job applications",
		Long:    "Add, list, update and remove the applications of the active season.",
	}
	cmd.AddCommand(
		newJobAddCommand(rt),
		newJobListCommand(rt),
		newJobShowCommand(rt),
		newJobUpdateCommand(rt),
		newJobStatusCommand(rt),
		newJobDeleteCommand(rt),
		newJobSearchCommand(rt),
		newJobFilterCommand(rt),
	)
	return cmd
}

// jobFlags binds the editable job fields to flags.
func jobFlags(fs *pflag.FlagSet, input *application.JobInput) {
	fs.StringVar(&input.Role, "role", "", "role applied for")
	fs.StringVar(&input.CompanyName, "company", "", "company name")
	fs.StringVar(&input.CompanyWebsite, "website", "", "company website (http or https)")
	fs.StringVar(&input.Source, "source", "", "where the posting was found")
	fs.StringVar(&input.Description, "description", "", "notes or job description")
	fs.StringVar(&input.ResumeSent, "resume", "", "resume version sent")
	fs.StringVar(&input.Status, "status", "", "status, e.g. \"phone screen\" (default Applied)")
	fs.StringVar(&input.AppliedDate, "applied", "", "applied date, e.g. 2024-01-31 or 01/31/2024 (default today)")
}

func newJobAddCommand(rt *runtime) *cobra.Command {
	var input application.JobInput
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a new application in the active season",
		Example: `  jobtracker job add --role "Backend Engineer" --company Acme --source LinkedIn --applied 2024-01-31`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			job, err := a.Tracker.AddJob(ctx, user.ID, input)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Added job #%d: %s at %s (%s).", job.ID, job.Role, job.CompanyName, job.SeasonName)
			return nil
		},
	}
	jobFlags(cmd.Flags(), &input)
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newJobListCommand(rt *runtime) *cobra.Command {
	var season int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the applications of a season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			jobs, err := a.Tracker.ListJobs(ctx, user.ID, seasonFlag(season))
			if err != nil {
				return err
			}
			rt.printJobs(cmd.OutOrStdout(), "Applications", jobs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&season, "season", 0, "season id (default active season)")
	return cmd
}

func newJobSearchCommand(rt *runtime) *cobra.Command {
	var season int64
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search role, company and source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			term := strings.Join(args, " ")
			jobs, err := a.Tracker.SearchJobs(ctx, user.ID, term, seasonFlag(season))
			if err != nil {
				return err
			}
			rt.printJobs(cmd.OutOrStdout(), fmt.Sprintf("Results for %q", term), jobs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&season, "season", 0, "season id (default active season)")
	return cmd
}

func newJobFilterCommand(rt *runtime) *cobra.Command {
	var season int64
	cmd := &cobra.Command{
		Use:     "filter <status>",
		Short:   "List the applications in one status",
		Example: `  jobtracker job filter "technical interview"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			status, err := application.ParseJobStatus(strings.Join(args, " "))
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			jobs, err := a.Tracker.FilterByStatus(ctx, user.ID, status, seasonFlag(season))
			if err != nil {
				return err
			}
			rt.printJobs(cmd.OutOrStdout(), string(status), jobs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&season, "season", 0, "season id (default active season)")
	return cmd
}

func newJobShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every detail of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "job")
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			job, err := a.Tracker.GetJob(ctx, user.ID, id)
			if err != nil {
				return err
			}

			now := rt.now()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("#%d %s at %s", job.ID, job.Role, job.CompanyName)))
			field(out, "Status", statusStyle(job.Status).Render(string(job.Status)))
			field(out, "Season", job.SeasonName)
			field(out, "Website", job.CompanyWebsite)
			field(out, "Source", job.Source)
			field(out, "Resume", job.ResumeSent)
			field(out, "Applied", fmt.Sprintf("%s (%s)", formatDate(job.AppliedDate), validation.FormatAge(job.DaysSinceApplied(now))))
			field(out, "Updated", fmt.Sprintf("%s (%s)", formatDate(job.LastUpdated), validation.FormatAge(job.DaysSinceUpdated(now))))
			if job.Description != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, labelStyle.Render("Description"))
				fmt.Fprintln(out, job.Description)
			}
			return nil
		},
	}
}

func newJobUpdateCommand(rt *runtime) *cobra.Command {
	var input application.JobInput
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Edit an application; omitted flags keep their values",
		Example: `  jobtracker job update 12 --source Referral --description "Met at meetup"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "job")
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			existing, err := a.Tracker.GetJob(ctx, user.ID, id)
			if err != nil {
				return err
			}
			merged := mergeJobInput(cmd.Flags(), existing, input)
			job, err := a.Tracker.UpdateJob(ctx, user.ID, id, merged)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Updated job #%d: %s at %s.", job.ID, job.Role, job.CompanyName)
			return nil
		},
	}
	jobFlags(cmd.Flags(), &input)
	return cmd
}

// mergeJobInput starts from the stored job and applies only the flags the
// user set. Status and applied date stay empty unless set, which keeps them.
func mergeJobInput(fs *pflag.FlagSet, existing application.Job, input application.JobInput) application.JobInput {
	merged := application.JobInput{
		Role:           existing.Role,
		CompanyName:    existing.CompanyName,
		CompanyWebsite: existing.CompanyWebsite,
		Source:         existing.Source,
		Description:    existing.Description,
		ResumeSent:     existing.ResumeSent,
	}
	set := func(name string, dst *string, value string) {
		if fs.Changed(name) {
			*dst = value
		}
	}
	set("role", &merged.Role, input.Role)
	set("company", &merged.CompanyName, input.CompanyName)
	set("website", &merged.CompanyWebsite, input.CompanyWebsite)
	set("source", &merged.Source, input.Source)
	set("description", &merged.Description, input.Description)
	set("resume", &merged.ResumeSent, input.ResumeSent)
	set("status", &merged.Status, input.Status)
	set("applied", &merged.AppliedDate, input.AppliedDate)
	return merged
}

func newJobStatusCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "status <id> <status>",
		Short:   "Move an application to another status",
		Example: `  jobtracker job status 12 "phone screen"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "job")
			if err != nil {
				return err
			}
			status, err := application.ParseJobStatus(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			job, err := a.Tracker.UpdateStatus(ctx, user.ID, id, status)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Job #%d at %s is now %s.", job.ID, job.CompanyName, statusStyle(job.Status).Render(string(job.Status)))
			return nil
		},
	}
}

func newJobDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0], "job")
			if err != nil {
				return err
			}
			a, user, _, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}

			if err := a.Tracker.DeleteJob(ctx, user.ID, id); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted job #%d.", id)
			return nil
		},
	}
}

func (rt *runtime) printJobs(out io.Writer, title string, jobs []application.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No applications found."))
		return
	}

	now := rt.now()
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			validation.Truncate(job.CompanyName, 24),
			validation.Truncate(job.Role, 28),
			statusStyle(job.Status).Render(string(job.Status)),
			validation.FormatAge(job.DaysSinceApplied(now)),
			validation.Truncate(job.Source, 16),
		})
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(jobs))))
	fmt.Fprintln(out, renderTable([]string{"ID", "Company", "Role", "Status", "Applied", "Source"}, rows))
}

func seasonFlag(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
