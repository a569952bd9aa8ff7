package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcastplus/internal/config"
	"podcastplus/internal/wizard"
)

const userAgent = "ppp/1.0"

// Service defines the notification surface used by the CLI and the wizard.
type Service interface {
	JobCompleted(ctx context.Context, title, jobID string) error
	JobFailed(ctx context.Context, title, jobID, message string) error
	EpisodePublished(ctx context.Context, title string) error
	TestNotification(ctx context.Context) error
}

var _ wizard.Notifier = Service(nil)

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		jobCompleted: cfg.Notifications.JobCompleted,
		jobFailed:    cfg.Notifications.JobFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	jobCompleted bool
	jobFailed    bool
}

func (n *ntfyService) JobCompleted(ctx context.Context, title, jobID string) error {
	if !n.jobCompleted {
		return nil
	}
	data := payload{
		title:    "Podcast Plus - Episode Ready",
		message:  fmt.Sprintf("✅ Episode assembled: %s", displayTitle(title, jobID)),
		tags:     []string{"podcastplus", "assembly", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) JobFailed(ctx context.Context, title, jobID, message string) error {
	if !n.jobFailed {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}
	data := payload{
		title:    "Podcast Plus - Assembly Failed",
		message:  fmt.Sprintf("❌ %s: %s", displayTitle(title, jobID), message),
		tags:     []string{"podcastplus", "assembly", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) EpisodePublished(ctx context.Context, title string) error {
	data := payload{
		title:   "Podcast Plus - Publishing",
		message: fmt.Sprintf("📡 Sent to Spreaker: %s", strings.TrimSpace(title)),
		tags:    []string{"podcastplus", "publish"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Podcast Plus - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"podcastplus", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func displayTitle(title, jobID string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "job " + jobID
	}
	return title
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) JobCompleted(context.Context, string, string) error      { return nil }
func (noopService) JobFailed(context.Context, string, string, string) error { return nil }
func (noopService) EpisodePublished(context.Context, string) error          { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
