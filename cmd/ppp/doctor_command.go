package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podcastplus/internal/preflight"
)

const statusLabelWidth = 20

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, local state and API connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var identity preflight.Identity
			authenticated := false
			if client, err := ctx.apiClient(); err == nil {
				identity = client
				authenticated = client.Session().Authenticated()
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, heading("Podcast Plus doctor", colorize))
			results := preflight.RunAll(cmd.Context(), cfg, identity, authenticated)
			for _, result := range results {
				fmt.Fprintln(out, renderCheck(result, colorize))
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func renderCheck(result preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	if !result.Passed {
		label, color = "FAIL", ansiRed
	}
	status := fmt.Sprintf("[%s]", label)
	if result.Detail != "" {
		status += " " + result.Detail
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, result.Name+":", status)
	if colorize {
		return color + line + ansiReset
	}
	return line
}
