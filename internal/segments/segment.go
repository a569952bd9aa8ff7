package segments

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SourceType selects how a segment's audio is produced.
type SourceType string

const (
	SourceStatic      SourceType = "static"
	SourceAIGenerated SourceType = "ai_generated"
	SourceTTS         SourceType = "tts"
)

// DefaultVoiceID is the voice the API assigns when none is chosen.
const DefaultVoiceID = "19B4gjtpL5m876wS3Dfg"

// ParseSourceType maps user input onto a SourceType.
func ParseSourceType(value string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(value))) {
	case SourceStatic:
		return SourceStatic, nil
	case SourceAIGenerated, "ai":
		return SourceAIGenerated, nil
	case SourceTTS:
		return SourceTTS, nil
	default:
		return "", fmt.Errorf("unknown segment source %q", value)
	}
}

// Source describes where a segment's audio comes from.
type Source struct {
	Type     SourceType `json:"source_type"`
	Filename string     `json:"filename,omitempty"`
	Prompt   string     `json:"prompt,omitempty"`
	Script   string     `json:"script,omitempty"`
	VoiceID  string     `json:"voice_id,omitempty"`
}

// Validate checks the fields the chosen source type needs. TTS scripts may be
// empty because the wizard collects them per episode.
func (s Source) Validate() error {
	switch s.Type {
	case SourceStatic:
		if strings.TrimSpace(s.Filename) == "" {
			return fmt.Errorf("static source requires a filename")
		}
	case SourceAIGenerated:
		if strings.TrimSpace(s.Prompt) == "" {
			return fmt.Errorf("ai_generated source requires a prompt")
		}
	case SourceTTS:
	default:
		return fmt.Errorf("unknown segment source %q", s.Type)
	}
	return nil
}

// Segment is one building block of a template.
type Segment struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"segment_type"`
	Source Source `json:"source"`
}

// NewSegment creates a segment with a fresh identifier.
func NewSegment(kind Kind, source Source) Segment {
	return Segment{ID: uuid.NewString(), Kind: kind, Source: source}
}

// Draggable reports whether the segment may be moved by the user.
func (s Segment) Draggable() bool {
	return Placement(s.Kind) != Fixed
}

// NeedsText reports whether the wizard must collect text for this segment.
func (s Segment) NeedsText() bool {
	return s.Source.Type == SourceTTS
}
