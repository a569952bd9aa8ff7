package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podcastplus/internal/catalog"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/segments"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "List and edit episode templates",
	}
	cmd.AddCommand(newTemplatesListCommand(ctx))
	cmd.AddCommand(newTemplatesShowCommand(ctx))
	cmd.AddCommand(newTemplatesAddSegmentCommand(ctx))
	cmd.AddCommand(newTemplatesMoveCommand(ctx))
	cmd.AddCommand(newTemplatesRemoveCommand(ctx))
	cmd.AddCommand(newTemplatesSetSourceCommand(ctx))
	return cmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			templates, err := client.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, templates)
			}
			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates")
				return nil
			}
			rows := make([][]string, 0, len(templates))
			for _, tpl := range templates {
				rows = append(rows, []string{tpl.ID, tpl.Name, strconv.Itoa(len(tpl.Segments)), layout(tpl.Segments)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Segments", "Layout"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newTemplatesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <template>",
		Short: "Show the segments of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}
			tpl, err := resolveTemplate(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, tpl)
			}
			printTemplate(cmd, tpl)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

type sourceFlags struct {
	source string
	file   string
	prompt string
	script string
	voice  string
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "static", "Source type: static, ai_generated or tts")
	cmd.Flags().StringVar(&f.file, "file", "", "Media filename for static sources")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Prompt for AI generated sources")
	cmd.Flags().StringVar(&f.script, "script", "", "Default script for text-to-speech sources")
	cmd.Flags().StringVar(&f.voice, "voice", "", "Voice id for generated audio")
}

func (f *sourceFlags) build() (segments.Source, error) {
	kind, err := segments.ParseSourceType(f.source)
	if err != nil {
		return segments.Source{}, err
	}
	source := segments.Source{
		Type:     kind,
		Filename: strings.TrimSpace(f.file),
		Prompt:   strings.TrimSpace(f.prompt),
		Script:   strings.TrimSpace(f.script),
		VoiceID:  strings.TrimSpace(f.voice),
	}
	if err := source.Validate(); err != nil {
		return segments.Source{}, err
	}
	return source, nil
}

func newTemplatesAddSegmentCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "add-segment <template>",
		Short: "Add a segment at the first position its kind allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := segments.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			source, err := src.build()
			if err != nil {
				return err
			}
			return editTemplate(cmd, ctx, args[0], func(tpl *podcastapi.Template) error {
				seg, err := tpl.AddSegment(kind, source)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s segment %s\n", seg.Kind.Label(), seg.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Segment kind: intro, content, outro, commercial, sound_effect, transition")
	_ = cmd.MarkFlagRequired("kind")
	src.bind(cmd)
	return cmd
}

func newTemplatesMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <template> <from> <to>",
		Short: "Move a segment between 1-based positions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			to, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			return editTemplate(cmd, ctx, args[0], func(tpl *podcastapi.Template) error {
				if err := tpl.MoveSegment(from, to); err != nil {
					return fmt.Errorf("move rejected, order unchanged: %w", err)
				}
				return nil
			})
		},
	}
}

func newTemplatesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <template> <segment>",
		Short: "Remove a segment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editTemplate(cmd, ctx, args[0], func(tpl *podcastapi.Template) error {
				seg, err := findSegment(tpl, args[1])
				if err != nil {
					return err
				}
				return tpl.RemoveSegment(seg.ID)
			})
		},
	}
}

func newTemplatesSetSourceCommand(ctx *commandContext) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "set-source <template> <segment>",
		Short: "Replace the audio source of a segment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := src.build()
			if err != nil {
				return err
			}
			return editTemplate(cmd, ctx, args[0], func(tpl *podcastapi.Template) error {
				seg, err := findSegment(tpl, args[1])
				if err != nil {
					return err
				}
				return tpl.SetSource(seg.ID, source)
			})
		},
	}
	src.bind(cmd)
	return cmd
}

// editTemplate fetches a template, applies edit locally and saves the result.
// Nothing is sent when edit fails.
func editTemplate(cmd *cobra.Command, ctx *commandContext, ref string, edit func(*podcastapi.Template) error) error {
	client, err := ctx.authedClient()
	if err != nil {
		return err
	}
	tpl, err := resolveTemplate(cmd.Context(), client, ref)
	if err != nil {
		return err
	}
	if err := edit(tpl); err != nil {
		return err
	}
	saved, err := client.UpdateTemplate(cmd.Context(), tpl)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	printTemplate(cmd, saved)
	return nil
}

func resolveTemplate(ctx context.Context, client *podcastapi.Client, ref string) (*podcastapi.Template, error) {
	ref = strings.TrimSpace(ref)
	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	c := catalog.Catalog{Templates: templates}
	match, ok := c.Template(ref)
	if !ok {
		return nil, fmt.Errorf("template %q not found", ref)
	}
	return client.GetTemplate(ctx, match.ID)
}

// findSegment matches a segment by 1-based position, id, or unique id prefix.
func findSegment(tpl *podcastapi.Template, ref string) (segments.Segment, error) {
	ref = strings.TrimSpace(ref)
	if pos, err := strconv.Atoi(ref); err == nil {
		if pos < 1 || pos > len(tpl.Segments) {
			return segments.Segment{}, fmt.Errorf("position %d out of range (template has %d segments)", pos, len(tpl.Segments))
		}
		return tpl.Segments[pos-1], nil
	}
	var matches []segments.Segment
	for _, seg := range tpl.Segments {
		if seg.ID == ref {
			return seg, nil
		}
		if strings.HasPrefix(seg.ID, ref) {
			matches = append(matches, seg)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return segments.Segment{}, fmt.Errorf("segment %q not found", ref)
	default:
		return segments.Segment{}, fmt.Errorf("segment %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func parsePosition(value string) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("invalid position %q (positions start at 1)", value)
	}
	return pos - 1, nil
}

func printTemplate(cmd *cobra.Command, tpl *podcastapi.Template) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading(fmt.Sprintf("%s (%s)", tpl.Name, tpl.ID), shouldColorize(out)))
	rows := make([][]string, 0, len(tpl.Segments))
	for i, seg := range tpl.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			shortID(seg.ID),
			seg.Kind.Label(),
			string(seg.Source.Type),
			sourceDetail(seg.Source),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "ID", "Kind", "Source", "Detail"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func layout(list []segments.Segment) string {
	parts := make([]string, 0, len(list))
	for _, seg := range list {
		parts = append(parts, string(seg.Kind))
	}
	return strings.Join(parts, " > ")
}

func sourceDetail(src segments.Source) string {
	switch src.Type {
	case segments.SourceStatic:
		return valueOrDash(src.Filename)
	case segments.SourceAIGenerated:
		return valueOrDash(src.Prompt)
	default:
		return valueOrDash(src.Script)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
