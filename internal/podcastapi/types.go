package podcastapi

import (
	"time"

	"podcastplus/internal/segments"
)

// Show is a podcast owned by the current user.
type Show struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CoverPath   string `json:"cover_path,omitempty"`
	RSSURL      string `json:"rss_url,omitempty"`
}

// MediaItem is a stored upload in the user's library.
type MediaItem struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	Category     string    `json:"category"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type,omitempty"`
	Filesize     int64     `json:"filesize,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Template is the API representation of an episode template.
type Template = segments.Template

// Episode summarizes an assembled episode.
type Episode struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Description           string `json:"description,omitempty"`
	Status                string `json:"status"`
	FinalAudioURL         string `json:"final_audio_url,omitempty"`
	CoverURL              string `json:"cover_url,omitempty"`
	ProcessedAt           string `json:"processed_at,omitempty"`
	PublishAt             string `json:"publish_at,omitempty"`
	SpreakerEpisodeID     string `json:"spreaker_episode_id,omitempty"`
	IsPublishedToSpreaker bool   `json:"is_published_to_spreaker,omitempty"`
}

// EpisodeDetails is the metadata block of an assembly request.
type EpisodeDetails struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Season         string `json:"season,omitempty"`
	EpisodeNumber  string `json:"episodeNumber,omitempty"`
	CoverImagePath string `json:"cover_image_path,omitempty"`
}

// CleanupOptions toggles audio cleanup during assembly.
type CleanupOptions struct {
	RemovePauses  bool `json:"removePauses"`
	RemoveFillers bool `json:"removeFillers"`
}

// AssembleRequest is the body of POST /api/episodes/assemble.
type AssembleRequest struct {
	TemplateID          string            `json:"template_id"`
	PodcastID           string            `json:"podcast_id"`
	MainContentFilename string            `json:"main_content_filename"`
	OutputFilename      string            `json:"output_filename"`
	TTSValues           map[string]string `json:"tts_values,omitempty"`
	EpisodeDetails      EpisodeDetails    `json:"episode_details"`
	CleanupOptions      CleanupOptions    `json:"cleanup_options"`
}

// AssembleResponse is returned when an assembly job has been queued.
type AssembleResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	EpisodeID string `json:"episode_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// JobState is the job status vocabulary of the API.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobProcessed  JobState = "processed"
	JobError      JobState = "error"
)

// Terminal reports whether no further polling should happen.
func (s JobState) Terminal() bool {
	return s == JobProcessed || s == JobError
}

// JobStatus is the body of GET /api/episodes/status/{job_id}.
type JobStatus struct {
	JobID   string   `json:"job_id"`
	Status  JobState `json:"status"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
	Episode *Episode `json:"episode,omitempty"`
}

// PublishResponse is returned when a Spreaker publish is queued.
type PublishResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
