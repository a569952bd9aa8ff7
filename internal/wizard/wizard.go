package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/segments"
	"podcastplus/internal/services"
)

// ErrClosed is returned by every operation after Teardown.
var ErrClosed = errors.New("wizard closed")

// ErrCancelled is returned by a submission that Jump discarded before the
// assembly response was adopted.
var ErrCancelled = errors.New("submission cancelled")

// Uploader stores a file in the media library.
type Uploader interface {
	Upload(ctx context.Context, category, name string, content io.Reader) (*podcastapi.MediaItem, error)
}

// Assembler queues an episode build.
type Assembler interface {
	Assemble(ctx context.Context, req podcastapi.AssembleRequest) (*podcastapi.AssembleResponse, error)
}

// Backend is everything the wizard calls on the API.
type Backend interface {
	Uploader
	Assembler
	StatusChecker
}

// JobRecord describes a submitted job for the local ledger.
type JobRecord struct {
	JobID      string
	EpisodeID  string
	TemplateID string
	ShowID     string
	Title      string
	Filename   string
}

// JobRecorder keeps a local record of submitted jobs. Failures are logged only.
type JobRecorder interface {
	JobSubmitted(ctx context.Context, rec JobRecord) error
	JobFinished(ctx context.Context, jobID string, state podcastapi.JobState, message string) error
}

// Notifier announces terminal job outcomes. Failures are logged only.
type Notifier interface {
	JobCompleted(ctx context.Context, title, jobID string) error
	JobFailed(ctx context.Context, title, jobID, message string) error
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Option configures a Wizard.
type Option func(*Wizard)

// WithPollInterval sets the gap between job status requests.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Wizard) {
		w.pollInterval = interval
	}
}

// WithCategories overrides the upload categories for content and cover files.
func WithCategories(content, cover string) Option {
	return func(w *Wizard) {
		if strings.TrimSpace(content) != "" {
			w.categories[slotContent] = content
		}
		if strings.TrimSpace(cover) != "" {
			w.categories[slotCover] = cover
		}
	}
}

// WithCleanup sets the audio cleanup flags sent with every submission.
func WithCleanup(opts podcastapi.CleanupOptions) Option {
	return func(w *Wizard) {
		w.cleanup = opts
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRecorder attaches a job ledger.
func WithRecorder(rec JobRecorder) Option {
	return func(w *Wizard) {
		w.recorder = rec
	}
}

// WithNotifier attaches a terminal-outcome notifier.
func WithNotifier(n Notifier) Option {
	return func(w *Wizard) {
		w.notifier = n
	}
}

// WithListener registers fn for state changes. fn runs outside the wizard lock,
// sometimes on the polling goroutine. It may call Jump or Teardown; when it
// does so from a poll update, that call does not wait for the loop to exit.
func WithListener(fn Listener) Option {
	return func(w *Wizard) {
		w.listener = fn
	}
}

// Snapshot is a consistent copy of the wizard state.
type Snapshot struct {
	Step          Step
	Publish       PublishState
	Draft         Draft
	ContentUpload UploadState
	CoverUpload   UploadState
	JobID         string
	JobStatus     podcastapi.JobState
	Episode       *podcastapi.Episode
	Err           error
	Closed        bool
}

// Wizard drives one episode from template choice to a finished assembly job.
// All methods are safe for concurrent use.
type Wizard struct {
	backend      Backend
	recorder     JobRecorder
	notifier     Notifier
	listener     Listener
	logger       *slog.Logger
	pollInterval time.Duration
	categories   [slotCount]string
	cleanup      podcastapi.CleanupOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       Step
	draft      Draft
	template   *segments.Template
	uploads    [slotCount]uploadSlot
	publish    PublishState
	jobID      string
	jobStatus  podcastapi.JobState
	episode    *podcastapi.Episode
	lastErr    error
	closed     bool

	submitGen    uint64
	submitCancel context.CancelFunc

	pollCancel   context.CancelFunc
	pollDone     chan struct{}
	pollEmitting chan struct{}
}

// New creates a wizard at the first step with an empty draft.
func New(backend Backend, opts ...Option) *Wizard {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Wizard{
		backend:      backend,
		logger:       logging.NewNop(),
		pollInterval: DefaultPollInterval,
		categories:   [slotCount]string{slotContent: podcastapi.CategoryMainContent, slotCover: podcastapi.CategoryEpisodeCover},
		ctx:          ctx,
		cancel:       cancel,
		draft:        Draft{TTSValues: map[string]string{}},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "wizard")
	return w
}

// Snapshot returns the current state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Wizard) snapshotLocked() Snapshot {
	return Snapshot{
		Step:          w.step,
		Publish:       w.publish,
		Draft:         w.draft.clone(),
		ContentUpload: w.uploads[slotContent].state,
		CoverUpload:   w.uploads[slotCover].state,
		JobID:         w.jobID,
		JobStatus:     w.jobStatus,
		Episode:       w.episode,
		Err:           w.lastErr,
		Closed:        w.closed,
	}
}

// Step returns the active step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) emit() {
	if w.listener == nil {
		return
	}
	w.listener(w.Snapshot())
}

func validationError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "wizard", operation, message, nil)
}

// editableLocked rejects draft changes once the wizard is closed or done.
func (w *Wizard) editableLocked(operation string) error {
	if w.closed {
		return ErrClosed
	}
	if w.step == StepDone {
		return validationError(operation, "episode already assembled")
	}
	return nil
}

// Next advances one step when the active step is complete.
func (w *Wizard) Next() error {
	w.mu.Lock()
	err := w.nextLocked()
	if errors.Is(err, ErrClosed) {
		w.mu.Unlock()
		return err
	}
	if err != nil {
		w.lastErr = err
	}
	w.mu.Unlock()
	w.emit()
	return err
}

func (w *Wizard) nextLocked() error {
	if w.closed {
		return ErrClosed
	}
	switch w.step {
	case StepSelectTemplate:
		if strings.TrimSpace(w.draft.TemplateID) == "" {
			return validationError("next", "choose a template first")
		}
	case StepUploadContent:
		if strings.TrimSpace(w.draft.ContentFilename) == "" {
			return validationError("next", "upload the episode audio first")
		}
	case StepReviewSegments:
	case StepEpisodeDetails:
		if missing := w.draft.missingDetails(); len(missing) > 0 {
			return validationError("next", "missing "+strings.Join(missing, ", "))
		}
	case StepPublish:
		return validationError("next", "submit the episode to continue")
	case StepDone:
		return validationError("next", "already on the last step")
	}
	w.step++
	w.lastErr = nil
	return nil
}

// Previous retreats one step. It is a no-op on the first step.
func (w *Wizard) Previous() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	defer func() {
		w.mu.Unlock()
		w.emit()
	}()
	switch {
	case w.step == StepSelectTemplate:
		return nil
	case w.step == StepDone:
		return validationError("previous", "episode already assembled")
	case w.publish == PublishSubmitting || w.publish == PublishPolling:
		return validationError("previous", "assembly in progress")
	}
	w.step--
	w.lastErr = nil
	return nil
}

// Jump returns to the first step, stopping any polling and discarding the
// draft. It is the cancel path; no other target is accepted.
func (w *Wizard) Jump(step Step) error {
	if step != StepSelectTemplate {
		return validationError("jump", fmt.Sprintf("cannot jump to %s", step))
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	done := w.stopPollingLocked()
	w.cancelUploadsLocked()
	w.cancelSubmitLocked()
	w.step = StepSelectTemplate
	w.draft = Draft{TTSValues: map[string]string{}}
	w.template = nil
	for i := range w.uploads {
		w.uploads[i].state = UploadNone
		w.uploads[i].err = nil
	}
	w.publish = PublishIdle
	w.jobID = ""
	w.jobStatus = ""
	w.episode = nil
	w.lastErr = nil
	w.mu.Unlock()
	if done != nil {
		<-done
	}
	w.emit()
	return nil
}

// Teardown cancels all background work. After it returns no further request
// is issued and the state never changes again.
func (w *Wizard) Teardown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	done := w.stopPollingLocked()
	w.cancelUploadsLocked()
	w.cancelSubmitLocked()
	w.cancel()
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SelectTemplate records the template for the draft. Text values collected
// for a previous template are dropped.
func (w *Wizard) SelectTemplate(tpl *segments.Template) error {
	if tpl == nil || strings.TrimSpace(tpl.ID) == "" {
		return validationError("select template", "template id required")
	}
	w.mu.Lock()
	if err := w.editableLocked("select template"); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.draft.TemplateID != tpl.ID {
		w.draft.TTSValues = map[string]string{}
	}
	copied := *tpl
	copied.Segments = append([]segments.Segment(nil), tpl.Segments...)
	w.template = &copied
	w.draft.TemplateID = tpl.ID
	w.lastErr = nil
	w.mu.Unlock()
	w.emit()
	return nil
}

// SelectShow records the destination show.
func (w *Wizard) SelectShow(showID string) error {
	showID = strings.TrimSpace(showID)
	if showID == "" {
		return validationError("select show", "show id required")
	}
	w.mu.Lock()
	if err := w.editableLocked("select show"); err != nil {
		w.mu.Unlock()
		return err
	}
	w.draft.ShowID = showID
	w.mu.Unlock()
	w.emit()
	return nil
}

// Prompts lists the template segments whose text the user supplies.
func (w *Wizard) Prompts() []segments.Segment {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.template == nil {
		return nil
	}
	return w.template.TextSegments()
}

// SetSegmentText stores the text for a text-to-speech or AI segment.
func (w *Wizard) SetSegmentText(segmentID, text string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	defer func() {
		w.mu.Unlock()
		w.emit()
	}()
	if err := w.editableLocked("set segment text"); err != nil {
		return err
	}
	if w.template == nil {
		return validationError("set segment text", "choose a template first")
	}
	seg, ok := w.template.Segment(segmentID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "wizard", "set segment text", fmt.Sprintf("segment %s", segmentID), nil)
	}
	if !seg.NeedsText() {
		return validationError("set segment text", fmt.Sprintf("segment %s uses a static file", segmentID))
	}
	if strings.TrimSpace(text) == "" {
		delete(w.draft.TTSValues, segmentID)
		return nil
	}
	w.draft.TTSValues[segmentID] = text
	return nil
}

// SetDetails stores the episode metadata.
func (w *Wizard) SetDetails(details Details) error {
	w.mu.Lock()
	if err := w.editableLocked("set details"); err != nil {
		w.mu.Unlock()
		return err
	}
	w.draft.Title = strings.TrimSpace(details.Title)
	w.draft.Description = strings.TrimSpace(details.Description)
	w.draft.Season = strings.TrimSpace(details.Season)
	w.draft.EpisodeNumber = strings.TrimSpace(details.EpisodeNumber)
	w.mu.Unlock()
	w.emit()
	return nil
}
