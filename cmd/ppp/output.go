package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"podcastplus/internal/podcastapi"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorState(state podcastapi.JobState, colorize bool) string {
	label := string(state)
	if label == "" {
		label = "unknown"
	}
	if !colorize {
		return label
	}
	switch state {
	case podcastapi.JobProcessed:
		return ansiGreen + label + ansiReset
	case podcastapi.JobError:
		return ansiRed + label + ansiReset
	case podcastapi.JobQueued, podcastapi.JobProcessing:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func heading(title string, colorize bool) string {
	rule := strings.Repeat("-", len(title))
	if colorize {
		return ansiBlue + title + ansiReset + "\n" + ansiBlue + rule + ansiReset
	}
	return title + "\n" + rule
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
