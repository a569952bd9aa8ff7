package podcastapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"podcastplus/internal/logging"
	"podcastplus/internal/services"
	"podcastplus/internal/session"
)

const (
	headerRequestID = "X-Request-ID"
	userAgent       = "ppp/1.0"
	maxErrorBody    = 64 << 10
)

// Client talks to the Podcast Plus HTTP API on behalf of the current session.
type Client struct {
	baseURL      string
	session      *session.Session
	httpClient   *http.Client
	uploadClient *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the client used for regular JSON calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUploadClient overrides the client used for multipart uploads.
func WithUploadClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.uploadClient = client
		}
	}
}

// WithTimeouts sets request and upload timeouts on the default clients.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.httpClient = &http.Client{Timeout: request}
		}
		if upload > 0 {
			c.uploadClient = &http.Client{Timeout: upload}
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an API client. A nil session yields anonymous requests.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api base url required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	if sess == nil {
		sess = session.New(nil)
	}
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		session:      sess,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		uploadClient: &http.Client{Timeout: 10 * time.Minute},
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "podcastapi")
	return client, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session whose token authenticates requests.
func (c *Client) Session() *session.Session {
	return c.session
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	upload      bool
}

// do executes req and decodes a JSON success body into out when non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(headerRequestID, requestID)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token := c.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.httpClient
	if req.upload {
		httpClient = c.uploadClient
	}
	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return fmt.Errorf("%s %s (latency=%v): %w", req.method, req.path, latency, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", latency),
		slog.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			if clearErr := c.session.Clear(); clearErr != nil {
				c.logger.Warn("failed to clear rejected session", logging.Error(clearErr))
			}
		}
		return statusErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", path, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, request{method: method, path: path, body: body, contentType: contentType}, out)
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return services.Wrap(services.ErrValidation, "podcastapi", "login", "username and password are required", nil)
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var token tokenResponse
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/token",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &token)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return errors.New("login response missing access_token")
	}
	return c.session.Set(token.AccessToken)
}

// User describes the authenticated account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Tier      string `json:"tier,omitempty"`
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/auth/me", &raw); err != nil {
		return nil, err
	}
	var envelope struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.User != nil {
		return envelope.User, nil
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode current user: %w", err)
	}
	return &user, nil
}

// Logout forgets the local token. The API keeps no server-side session.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// ListTemplates returns the user's templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	if err := c.getJSON(ctx, "/api/templates/", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetTemplate fetches a single template.
func (c *Client) GetTemplate(ctx context.Context, id string) (*Template, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("template id required")
	}
	var tpl Template
	if err := c.getJSON(ctx, "/api/templates/"+url.PathEscape(id), &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// UpdateTemplate saves tpl and returns the stored copy.
func (c *Client) UpdateTemplate(ctx context.Context, tpl *Template) (*Template, error) {
	if tpl == nil || strings.TrimSpace(tpl.ID) == "" {
		return nil, errors.New("template id required")
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	var saved Template
	if err := c.sendJSON(ctx, http.MethodPut, "/api/templates/"+url.PathEscape(tpl.ID), tpl, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListShows returns the user's podcasts.
func (c *Client) ListShows(ctx context.Context) ([]Show, error) {
	var shows []Show
	if err := c.getJSON(ctx, "/api/podcasts/", &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// ListMedia returns the user's media library.
func (c *Client) ListMedia(ctx context.Context) ([]MediaItem, error) {
	var items []MediaItem
	if err := c.getJSON(ctx, "/api/media/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Assemble queues an episode build and returns the job handle.
func (c *Client) Assemble(ctx context.Context, req AssembleRequest) (*AssembleResponse, error) {
	var resp AssembleResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/episodes/assemble", req, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.JobID) == "" {
		return nil, errors.New("assemble response missing job_id")
	}
	return &resp, nil
}

// JobStatus fetches the current state of an assembly job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id required")
	}
	var status JobStatus
	if err := c.getJSON(ctx, "/api/episodes/status/"+url.PathEscape(jobID), &status); err != nil {
		return nil, err
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	return &status, nil
}

// ListEpisodes returns the user's episode history.
func (c *Client) ListEpisodes(ctx context.Context) ([]Episode, error) {
	var episodes []Episode
	if err := c.getJSON(ctx, "/api/episodes/", &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// PublishEpisode queues publication of an assembled episode to Spreaker.
func (c *Client) PublishEpisode(ctx context.Context, episodeID string) (*PublishResponse, error) {
	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" {
		return nil, errors.New("episode id required")
	}
	var resp PublishResponse
	path := "/api/episodes/" + url.PathEscape(episodeID) + "/publish"
	if err := c.sendJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
