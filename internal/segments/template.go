package segments

import (
	"errors"
	"fmt"
	"strings"

	"podcastplus/internal/services"
)

// MusicRule overlays background music on a set of segment kinds.
type MusicRule struct {
	ID              string  `json:"id,omitempty"`
	MusicFilename   string  `json:"music_filename"`
	ApplyToSegments []Kind  `json:"apply_to_segments"`
	StartOffsetS    float64 `json:"start_offset_s"`
	EndOffsetS      float64 `json:"end_offset_s"`
	FadeInS         float64 `json:"fade_in_s"`
	FadeOutS        float64 `json:"fade_out_s"`
	VolumeDB        int     `json:"volume_db"`
}

// Timing controls overlap between the content segment and its neighbours.
type Timing struct {
	ContentStartOffsetS float64 `json:"content_start_offset_s"`
	OutroStartOffsetS   float64 `json:"outro_start_offset_s"`
}

// Template is an ordered recipe for assembling an episode.
type Template struct {
	ID                   string      `json:"id,omitempty"`
	UserID               string      `json:"user_id,omitempty"`
	Name                 string      `json:"name"`
	Segments             []Segment   `json:"segments"`
	BackgroundMusicRules []MusicRule `json:"background_music_rules"`
	Timing               Timing      `json:"timing"`
}

// Segment returns the segment with id.
func (t *Template) Segment(id string) (Segment, bool) {
	for _, seg := range t.Segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return Segment{}, false
}

// TextSegments returns the segments whose text the wizard collects.
func (t *Template) TextSegments() []Segment {
	var out []Segment
	for _, seg := range t.Segments {
		if seg.NeedsText() {
			out = append(out, seg)
		}
	}
	return out
}

// AddSegment appends a new segment at the first position its kind allows:
// intros directly before content, everything else at the end.
func (t *Template) AddSegment(kind Kind, source Source) (Segment, error) {
	seg := NewSegment(kind, source)
	at := len(t.Segments)
	switch Placement(kind) {
	case Fixed:
		if ContentIndex(t.Segments) >= 0 {
			return Segment{}, rejection("add", ErrContentCount)
		}
		at = firstAfterIntros(t.Segments)
	case BeforeContent:
		if idx := ContentIndex(t.Segments); idx >= 0 {
			at = idx
		}
	}
	next := insertAt(clone(t.Segments), seg, at)
	if ContentIndex(next) >= 0 {
		if err := ValidateOrder(next); err != nil {
			return Segment{}, err
		}
	}
	t.Segments = next
	return seg, nil
}

// MoveSegment applies Move to the template's segments.
func (t *Template) MoveSegment(from, to int) error {
	next, err := Move(t.Segments, from, to)
	if err != nil {
		return err
	}
	t.Segments = next
	return nil
}

// RemoveSegment applies Remove to the template's segments.
func (t *Template) RemoveSegment(id string) error {
	next, err := Remove(t.Segments, id)
	if err != nil {
		return err
	}
	t.Segments = next
	return nil
}

// SetSource replaces the source of segment id.
func (t *Template) SetSource(id string, source Source) error {
	for i := range t.Segments {
		if t.Segments[i].ID == id {
			if source.VoiceID == "" && source.Type != SourceStatic {
				source.VoiceID = DefaultVoiceID
			}
			t.Segments[i].Source = source
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, "segments", "set source", fmt.Sprintf("segment %s", id), nil)
}

// Validate runs every check a template must pass before it is saved.
func (t *Template) Validate() error {
	var problems []error
	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, errors.New("template name is required"))
	}
	if err := ValidateOrder(t.Segments); err != nil {
		problems = append(problems, err)
	}
	for _, seg := range t.Segments {
		if err := seg.Source.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("segment %s (%s): %w", seg.ID, seg.Kind, err))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "segments", "validate template", "", errors.Join(problems...))
}

func firstAfterIntros(list []Segment) int {
	for i, seg := range list {
		if Placement(seg.Kind) != BeforeContent {
			return i
		}
	}
	return len(list)
}
