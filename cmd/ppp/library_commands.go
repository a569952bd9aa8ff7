package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"podcastplus/internal/podcastapi"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shows",
		Aliases: []string{"podcasts"},
		Short:   "List your podcasts",
	}
	var jsonOut bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List podcasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			shows, err := client.ListShows(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, shows)
			}
			if len(shows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No podcasts")
				return nil
			}
			rows := make([][]string, 0, len(shows))
			for _, show := range shows {
				rows = append(rows, []string{show.ID, show.Name, valueOrDash(show.RSSURL)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "RSS"}, rows, nil))
			return nil
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.AddCommand(list)
	return cmd
}

func newMediaCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect the media library",
	}
	var jsonOut bool
	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List uploaded media",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			items, err := client.ListMedia(cmd.Context())
			if err != nil {
				return err
			}
			items = filterMedia(items, category)
			if jsonOut {
				return writeJSON(cmd, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.Category,
					valueOrDash(item.FriendlyName),
					item.Filename,
					formatSize(item.Filesize),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Category", "Name", "Filename", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	list.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	list.Flags().StringVar(&category, "category", "", "Only show this category (intro, outro, music, ...)")
	cmd.AddCommand(list)
	return cmd
}

func filterMedia(items []podcastapi.MediaItem, category string) []podcastapi.MediaItem {
	category = strings.ToLower(strings.TrimSpace(category))
	out := make([]podcastapi.MediaItem, 0, len(items))
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGT"[exp])
}
