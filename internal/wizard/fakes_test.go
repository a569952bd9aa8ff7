package wizard

import (
	"context"
	"io"
	"sync"
	"time"

	"podcastplus/internal/podcastapi"
	"podcastplus/internal/segments"
)

type fakeBackend struct {
	mu sync.Mutex

	uploadFn    func(ctx context.Context, category, name string, content io.Reader) (*podcastapi.MediaItem, error)
	uploads     []string
	categories  []string
	assembleFn  func(ctx context.Context, req podcastapi.AssembleRequest) (*podcastapi.AssembleResponse, error)
	assembleErr error
	jobID       string
	assembled   []podcastapi.AssembleRequest
	statuses    []podcastapi.JobStatus
	statusErr   error
	polls       int
}

func (f *fakeBackend) Upload(ctx context.Context, category, name string, content io.Reader) (*podcastapi.MediaItem, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, name)
	f.categories = append(f.categories, category)
	fn := f.uploadFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, category, name, content)
	}
	_, _ = io.Copy(io.Discard, content)
	return &podcastapi.MediaItem{Category: category, Filename: name}, nil
}

func (f *fakeBackend) Assemble(ctx context.Context, req podcastapi.AssembleRequest) (*podcastapi.AssembleResponse, error) {
	f.mu.Lock()
	f.assembled = append(f.assembled, req)
	fn := f.assembleFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assembleErr != nil {
		return nil, f.assembleErr
	}
	return &podcastapi.AssembleResponse{JobID: f.jobID, Status: "queued"}, nil
}

func (f *fakeBackend) JobStatus(ctx context.Context, jobID string) (*podcastapi.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.polls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	status.JobID = jobID
	return &status, nil
}

func (f *fakeBackend) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeBackend) assembleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assembled)
}

type fakeLedger struct {
	mu        sync.Mutex
	submitted []JobRecord
	finished  map[string]podcastapi.JobState
}

func (l *fakeLedger) JobSubmitted(ctx context.Context, rec JobRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitted = append(l.submitted, rec)
	return nil
}

func (l *fakeLedger) JobFinished(ctx context.Context, jobID string, state podcastapi.JobState, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished == nil {
		l.finished = make(map[string]podcastapi.JobState)
	}
	l.finished[jobID] = state
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *fakeNotifier) JobCompleted(ctx context.Context, title, jobID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, title)
	return nil
}

func (n *fakeNotifier) JobFailed(ctx context.Context, title, jobID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, message)
	return nil
}

func testTemplate() *segments.Template {
	return &segments.Template{
		ID:   "T1",
		Name: "Weekly",
		Segments: []segments.Segment{
			{ID: "intro", Kind: segments.KindIntro, Source: segments.Source{Type: segments.SourceTTS, Script: "Welcome"}},
			{ID: "content", Kind: segments.KindContent, Source: segments.Source{Type: segments.SourceStatic, Filename: "{main}"}},
			{ID: "outro", Kind: segments.KindOutro, Source: segments.Source{Type: segments.SourceStatic, Filename: "outro.mp3"}},
		},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
