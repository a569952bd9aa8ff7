package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podcastplus/internal/history"
	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
	"podcastplus/internal/wizard"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect the local ledger of assembly jobs",
	}
	cmd.AddCommand(newJobsListCommand(ctx))
	cmd.AddCommand(newJobsWatchCommand(ctx))
	cmd.AddCommand(newJobsRemoveCommand(ctx))
	cmd.AddCommand(newJobsClearCommand(ctx))
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var pending bool
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			var jobs []*history.Job
			if pending {
				jobs, err = store.Pending(cmd.Context())
			} else {
				jobs, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, jobs)
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					job.JobID,
					valueOrDash(job.Title),
					colorState(job.Status, colorize),
					job.SubmittedAt.Local().Format(time.DateTime),
					valueOrDash(job.ErrorMessage),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Title", "Status", "Submitted", "Error"},
				rows,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only show jobs that have not finished")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Resume polling an unfinished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobsWatch(cmd, ctx, strings.TrimSpace(args[0]), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "poll-interval", 0, "Override the job status poll interval")
	return cmd
}

func runJobsWatch(cmd *cobra.Command, ctx *commandContext, jobID string, interval time.Duration) error {
	store, err := ctx.historyStore()
	if err != nil {
		return err
	}
	runCtx := services.WithJobID(cmd.Context(), jobID)
	job, err := store.Get(runCtx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s is not in the local history", jobID)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if job.Terminal() {
		fmt.Fprintf(out, "Job %s already finished: %s\n", jobID, colorState(job.Status, colorize))
		if job.ErrorMessage != "" {
			fmt.Fprintf(out, "  %s\n", job.ErrorMessage)
		}
		return nil
	}

	client, err := ctx.authedClient()
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = ctx.configValue().PollInterval()
	}
	logger := logging.WithContext(runCtx, ctx.log())
	last := job.Status
	fmt.Fprintf(out, "Watching job %s (%s)\n", jobID, colorState(last, colorize))

	poller := wizard.NewPoller(client, interval)
	status, err := poller.Run(runCtx, jobID, func(status *podcastapi.JobStatus) {
		if status.Status == last {
			return
		}
		last = status.Status
		fmt.Fprintf(out, "  %s\n", colorState(status.Status, colorize))
		if !status.Status.Terminal() {
			if err := store.UpdateStatus(runCtx, jobID, status.Status); err != nil {
				logger.Warn("update job history failed", logging.Error(err))
			}
		}
	})
	if err != nil {
		return err
	}

	var message string
	if status.Status == podcastapi.JobError {
		message = strings.TrimSpace(status.Error)
		if message == "" {
			message = strings.TrimSpace(status.Message)
		}
		if message == "" {
			message = "assembly failed"
		}
	}
	if err := store.JobFinished(runCtx, jobID, status.Status, message); err != nil {
		logger.Warn("record job outcome failed", logging.Error(err))
	}
	notifier := ctx.notifier()
	if status.Status == podcastapi.JobProcessed {
		if err := notifier.JobCompleted(runCtx, job.Title, jobID); err != nil {
			logger.Warn("job notification failed", logging.Error(err))
		}
		printEpisode(cmd, status.Episode)
		return nil
	}
	if err := notifier.JobFailed(runCtx, job.Title, jobID, message); err != nil {
		logger.Warn("job notification failed", logging.Error(err))
	}
	return services.Wrap(services.ErrJob, "jobs", "watch", message, nil)
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove a job from the local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			removed, err := store.Remove(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("job %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
			return nil
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			var count int64
			if all {
				count, err = store.Clear(cmd.Context())
			} else {
				count, err = store.ClearFinished(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also remove unfinished jobs")
	return cmd
}
