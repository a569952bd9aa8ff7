package wizard

import (
	"maps"
	"strings"

	"podcastplus/internal/podcastapi"
)

// Draft is the episode being built. The wizard owns it; callers only see copies.
type Draft struct {
	TemplateID      string
	ShowID          string
	ContentFilename string
	CoverFilename   string
	TTSValues       map[string]string
	Title           string
	Description     string
	Season          string
	EpisodeNumber   string
}

// Details is the metadata entered on the episode details step.
type Details struct {
	Title         string
	Description   string
	Season        string
	EpisodeNumber string
}

func (d Draft) clone() Draft {
	d.TTSValues = maps.Clone(d.TTSValues)
	return d
}

// missingForSubmit names the fields an assembly request cannot go without.
func (d Draft) missingForSubmit() []string {
	var missing []string
	if strings.TrimSpace(d.TemplateID) == "" {
		missing = append(missing, "template")
	}
	if strings.TrimSpace(d.ShowID) == "" {
		missing = append(missing, "show")
	}
	if strings.TrimSpace(d.ContentFilename) == "" {
		missing = append(missing, "content file")
	}
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	return missing
}

func (d Draft) missingDetails() []string {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Season) == "" {
		missing = append(missing, "season")
	}
	if strings.TrimSpace(d.EpisodeNumber) == "" {
		missing = append(missing, "episode number")
	}
	return missing
}

func (d Draft) assembleRequest(cleanup podcastapi.CleanupOptions) podcastapi.AssembleRequest {
	req := podcastapi.AssembleRequest{
		TemplateID:          d.TemplateID,
		PodcastID:           d.ShowID,
		MainContentFilename: d.ContentFilename,
		OutputFilename:      OutputFilename(d.Title),
		EpisodeDetails: podcastapi.EpisodeDetails{
			Title:          strings.TrimSpace(d.Title),
			Description:    strings.TrimSpace(d.Description),
			Season:         strings.TrimSpace(d.Season),
			EpisodeNumber:  strings.TrimSpace(d.EpisodeNumber),
			CoverImagePath: d.CoverFilename,
		},
		CleanupOptions: cleanup,
	}
	if len(d.TTSValues) > 0 {
		req.TTSValues = maps.Clone(d.TTSValues)
	}
	return req
}

// OutputFilename derives the output file stem from an episode title.
func OutputFilename(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}
