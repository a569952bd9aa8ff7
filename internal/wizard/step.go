package wizard

import (
	"fmt"
	"strings"
)

// Step is one stage of episode creation.
type Step int

const (
	StepSelectTemplate Step = iota
	StepUploadContent
	StepReviewSegments
	StepEpisodeDetails
	StepPublish
	StepDone
)

var stepNames = [...]string{
	StepSelectTemplate: "select_template",
	StepUploadContent:  "upload_content",
	StepReviewSegments: "review_segments",
	StepEpisodeDetails: "episode_details",
	StepPublish:        "publish",
	StepDone:           "done",
}

// Steps returns every step in order.
func Steps() []Step {
	return []Step{StepSelectTemplate, StepUploadContent, StepReviewSegments, StepEpisodeDetails, StepPublish, StepDone}
}

func (s Step) String() string {
	if s < StepSelectTemplate || s > StepDone {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Title is the human-facing label of the step.
func (s Step) Title() string {
	return strings.ReplaceAll(s.String(), "_", " ")
}

// ParseStep accepts the names produced by String.
func ParseStep(value string) (Step, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for i, name := range stepNames {
		if name == normalized {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", value)
}

// PublishState is the sub-state of the publish step.
type PublishState int

const (
	PublishIdle PublishState = iota
	PublishSubmitting
	PublishPolling
	PublishDone
)

func (p PublishState) String() string {
	switch p {
	case PublishIdle:
		return "idle"
	case PublishSubmitting:
		return "submitting"
	case PublishPolling:
		return "polling"
	case PublishDone:
		return "done"
	default:
		return fmt.Sprintf("publish(%d)", int(p))
	}
}

// UploadState tracks one file slot of the draft.
type UploadState int

const (
	UploadNone UploadState = iota
	UploadInFlight
	UploadReady
	UploadFailed
)

func (u UploadState) String() string {
	switch u {
	case UploadNone:
		return "none"
	case UploadInFlight:
		return "uploading"
	case UploadReady:
		return "ready"
	case UploadFailed:
		return "failed"
	default:
		return fmt.Sprintf("upload(%d)", int(u))
	}
}
