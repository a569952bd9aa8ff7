package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"podcastplus/internal/catalog"
	"podcastplus/internal/config"
	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
	"podcastplus/internal/wizard"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "episode",
		Aliases: []string{"episodes"},
		Short:   "Create, list and publish episodes",
	}
	cmd.AddCommand(newEpisodeCreateCommand(ctx))
	cmd.AddCommand(newEpisodeListCommand(ctx))
	cmd.AddCommand(newEpisodePublishCommand(ctx))
	return cmd
}

type createOptions struct {
	template      string
	show          string
	audio         string
	cover         string
	title         string
	description   string
	season        string
	episodeNumber string
	texts         []string
	pollInterval  time.Duration
	noWait        bool
	removePauses  bool
	removeFillers bool
}

func newEpisodeCreateCommand(ctx *commandContext) *cobra.Command {
	var opts createOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Assemble a new episode from a template",
		Long: `Walk an episode through the assembly wizard: choose a template and show,
upload the main audio, fill in text-to-speech segments and details, then
submit and wait for the assembly job to finish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisodeCreate(cmd, ctx, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.template, "template", "t", "", "Template id or name")
	flags.StringVarP(&opts.show, "show", "s", "", "Podcast id or name")
	flags.StringVarP(&opts.audio, "audio", "a", "", "Main content audio file")
	flags.StringVar(&opts.cover, "cover", "", "Episode cover image")
	flags.StringVar(&opts.title, "title", "", "Episode title")
	flags.StringVar(&opts.description, "description", "", "Episode description")
	flags.StringVar(&opts.season, "season", "1", "Season number")
	flags.StringVar(&opts.episodeNumber, "episode", "", "Episode number")
	flags.StringArrayVar(&opts.texts, "text", nil, "Segment text as <segment>=<text> (repeatable)")
	flags.DurationVar(&opts.pollInterval, "poll-interval", 0, "Override the job status poll interval")
	flags.BoolVar(&opts.noWait, "no-wait", false, "Return once the job is queued")
	flags.BoolVar(&opts.removePauses, "remove-pauses", false, "Remove long pauses from the content (defaults to wizard.remove_pauses)")
	flags.BoolVar(&opts.removeFillers, "remove-fillers", false, "Remove filler words from the content (defaults to wizard.remove_fillers)")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("show")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("episode")
	return cmd
}

func runEpisodeCreate(cmd *cobra.Command, ctx *commandContext, opts createOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	client, err := ctx.authedClient()
	if err != nil {
		return err
	}
	logger := ctx.log()
	runCtx := cmd.Context()

	cat, err := catalog.Load(runCtx, client, logger)
	if err != nil {
		return err
	}
	tpl, ok := cat.Template(opts.template)
	if !ok {
		return fmt.Errorf("template %q not found", opts.template)
	}
	show, ok := cat.Show(opts.show)
	if !ok {
		return fmt.Errorf("podcast %q not found", opts.show)
	}
	texts, err := parseTexts(tpl, opts.texts)
	if err != nil {
		return err
	}

	interval := opts.pollInterval
	if interval <= 0 {
		interval = cfg.PollInterval()
	}
	cleanup := podcastapi.CleanupOptions{
		RemovePauses:  cfg.Wizard.RemovePauses,
		RemoveFillers: cfg.Wizard.RemoveFillers,
	}
	if cmd.Flags().Changed("remove-pauses") {
		cleanup.RemovePauses = opts.removePauses
	}
	if cmd.Flags().Changed("remove-fillers") {
		cleanup.RemoveFillers = opts.removeFillers
	}
	wizardOpts := []wizard.Option{
		wizard.WithPollInterval(interval),
		wizard.WithCategories(cfg.Wizard.UploadCategory, cfg.Wizard.CoverCategory),
		wizard.WithCleanup(cleanup),
		wizard.WithLogger(logger),
		wizard.WithNotifier(ctx.notifier()),
		wizard.WithListener(newProgressPrinter(cmd.ErrOrStderr()).observe),
	}
	if store, err := ctx.historyStore(); err != nil {
		logger.Warn("job history unavailable", logging.Error(err))
	} else {
		wizardOpts = append(wizardOpts, wizard.WithRecorder(store))
	}

	w := wizard.New(client, wizardOpts...)
	defer w.Teardown()

	if err := w.SelectTemplate(tpl); err != nil {
		return err
	}
	if err := w.SelectShow(show.ID); err != nil {
		return err
	}
	if err := w.Next(); err != nil {
		return err
	}

	if err := uploadFile(cmd, opts.audio, w.UploadContent); err != nil {
		return err
	}
	if err := w.Next(); err != nil {
		return err
	}

	for id, text := range texts {
		if err := w.SetSegmentText(id, text); err != nil {
			return err
		}
	}
	for _, seg := range w.Prompts() {
		if _, ok := texts[seg.ID]; !ok && strings.TrimSpace(seg.Source.Script) == "" {
			logger.Warn("segment has no text", slog.String("segment_id", seg.ID), slog.String("kind", string(seg.Kind)))
		}
	}
	if err := w.Next(); err != nil {
		return err
	}

	if err := w.SetDetails(wizard.Details{
		Title:         opts.title,
		Description:   opts.description,
		Season:        opts.season,
		EpisodeNumber: opts.episodeNumber,
	}); err != nil {
		return err
	}
	if strings.TrimSpace(opts.cover) != "" {
		if err := uploadFile(cmd, opts.cover, w.UploadCover); err != nil {
			return err
		}
	}
	if err := w.Next(); err != nil {
		return err
	}

	jobID, err := w.Submit(runCtx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.noWait {
		fmt.Fprintf(out, "Queued job %s\nFollow it with: ppp jobs watch %s\n", jobID, jobID)
		return nil
	}

	snap, err := w.Wait(runCtx)
	if err != nil {
		fmt.Fprintf(out, "Stopped waiting; job %s keeps running. Resume with: ppp jobs watch %s\n", jobID, jobID)
		return err
	}
	switch {
	case snap.Step == wizard.StepDone:
		printEpisode(cmd, snap.Episode)
		return nil
	case errors.Is(snap.Err, services.ErrPollingTransport):
		fmt.Fprintf(out, "Lost contact with the API; job %s may still be running. Resume with: ppp jobs watch %s\n", jobID, jobID)
		return snap.Err
	case snap.Err != nil:
		return snap.Err
	default:
		return fmt.Errorf("job %s ended in state %s", jobID, snap.JobStatus)
	}
}

func uploadFile(cmd *cobra.Command, path string, upload func(ctx context.Context, name string, r io.Reader) (string, error)) error {
	expanded, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return err
	}
	file, err := os.Open(expanded)
	if err != nil {
		return fmt.Errorf("open %s: %w", expanded, err)
	}
	defer func() { _ = file.Close() }()
	filename, err := upload(cmd.Context(), filepath.Base(expanded), file)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Uploaded %s as %s\n", filepath.Base(expanded), filename)
	return nil
}

// parseTexts resolves <segment>=<text> pairs against the template's segments.
func parseTexts(tpl *podcastapi.Template, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		ref, text, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --text %q (want <segment>=<text>)", pair)
		}
		seg, err := findSegment(tpl, ref)
		if err != nil {
			return nil, err
		}
		out[seg.ID] = text
	}
	return out, nil
}

// progressPrinter writes one line per step, upload or job status change.
type progressPrinter struct {
	out  io.Writer
	mu   sync.Mutex
	last wizard.Snapshot
	seen bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) observe(snap wizard.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.last
	p.last = snap
	if snap.Closed {
		return
	}
	if !p.seen || snap.Step != prev.Step {
		fmt.Fprintf(p.out, "> %s\n", snap.Step.Title())
	}
	p.seen = true
	if snap.ContentUpload != prev.ContentUpload && snap.ContentUpload == wizard.UploadInFlight {
		fmt.Fprintln(p.out, "  uploading audio...")
	}
	if snap.CoverUpload != prev.CoverUpload && snap.CoverUpload == wizard.UploadInFlight {
		fmt.Fprintln(p.out, "  uploading cover...")
	}
	if snap.JobStatus != "" && snap.JobStatus != prev.JobStatus {
		fmt.Fprintf(p.out, "  job %s: %s\n", snap.JobID, snap.JobStatus)
	}
}

func printEpisode(cmd *cobra.Command, ep *podcastapi.Episode) {
	out := cmd.OutOrStdout()
	if ep == nil {
		fmt.Fprintln(out, "Episode assembled")
		return
	}
	fmt.Fprintln(out, heading("Episode assembled", shouldColorize(out)))
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, [][]string{
		{"ID", ep.ID},
		{"Title", ep.Title},
		{"Status", valueOrDash(ep.Status)},
		{"Audio", valueOrDash(ep.FinalAudioURL)},
		{"Cover", valueOrDash(ep.CoverURL)},
	}, nil))
}

func newEpisodeListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assembled episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			episodes, err := client.ListEpisodes(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, episodes)
			}
			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes")
				return nil
			}
			rows := make([][]string, 0, len(episodes))
			for _, ep := range episodes {
				rows = append(rows, []string{
					ep.ID,
					ep.Title,
					valueOrDash(ep.Status),
					valueOrDash(ep.ProcessedAt),
					yesNo(ep.IsPublishedToSpreaker),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Status", "Processed", "Published"},
				rows,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newEpisodePublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <episode-id>",
		Short: "Publish an assembled episode to Spreaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			resp, err := client.PublishEpisode(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := ctx.notifier().EpisodePublished(cmd.Context(), id); err != nil {
				ctx.log().Warn("publish notification failed", logging.Error(err))
			}
			msg := resp.Message
			if msg == "" {
				msg = "Publish queued"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (job %s)\n", msg, valueOrDash(resp.JobID))
			return nil
		},
	}
}
