package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcastplus/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the client log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Logging.ToFile {
				fmt.Fprintln(cmd.ErrOrStderr(), "File logging is disabled (set logging.to_file = true)")
			}
			out := cmd.OutOrStdout()
			return logs.Tail(cmd.Context(), cfg.LogPath(), logs.Options{
				Lines:  lines,
				JobID:  jobID,
				Follow: follow,
			}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show lines for this job id")
	return cmd
}
