package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"podcastplus/internal/logging"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
)

// Submit sends the draft for assembly and starts polling the returned job.
// It must be called on the publish step while no job is active. An
// incomplete draft fails with ErrValidation before any request is made.
// A Jump before the response arrives cancels the request; the response, if
// any, is never adopted and Submit returns ErrCancelled.
func (w *Wizard) Submit(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", ErrClosed
	}
	if w.step != StepPublish {
		w.mu.Unlock()
		return "", validationError("submit", fmt.Sprintf("cannot submit from %s", w.step))
	}
	if w.publish != PublishIdle {
		w.mu.Unlock()
		return "", validationError("submit", "a submission is already active")
	}
	if missing := w.draft.missingForSubmit(); len(missing) > 0 {
		err := validationError("submit", "missing "+strings.Join(missing, ", "))
		w.lastErr = err
		w.mu.Unlock()
		w.emit()
		return "", err
	}
	draft := w.draft.clone()
	req := draft.assembleRequest(w.cleanup)
	w.publish = PublishSubmitting
	w.lastErr = nil
	w.submitGen++
	gen := w.submitGen
	sctx, cancel := context.WithCancel(ctx)
	w.submitCancel = cancel
	w.mu.Unlock()
	w.emit()
	defer cancel()

	resp, err := w.backend.Assemble(sctx, req)
	if err != nil {
		wrapped := services.Wrap(services.ErrSubmission, "wizard", "submit", "assembly request rejected", err)
		w.mu.Lock()
		if stale := w.submissionStaleLocked(gen); stale != nil {
			w.mu.Unlock()
			return "", stale
		}
		w.submitCancel = nil
		w.publish = PublishIdle
		w.lastErr = wrapped
		w.mu.Unlock()
		w.logger.Warn("submission failed", logging.Error(err))
		w.emit()
		return "", wrapped
	}

	// The job exists on the server even when the draft was discarded.
	jobCtx := services.WithJobID(ctx, resp.JobID)
	w.record(jobCtx, func(ctx context.Context, rec JobRecorder) error {
		return rec.JobSubmitted(ctx, JobRecord{
			JobID:      resp.JobID,
			EpisodeID:  resp.EpisodeID,
			TemplateID: draft.TemplateID,
			ShowID:     draft.ShowID,
			Title:      draft.Title,
			Filename:   draft.ContentFilename,
		})
	})

	w.mu.Lock()
	if stale := w.submissionStaleLocked(gen); stale != nil {
		w.mu.Unlock()
		logging.WithContext(jobCtx, w.logger).Info("assembly response discarded", logging.Error(stale))
		return "", stale
	}
	w.submitCancel = nil
	w.publish = PublishPolling
	w.jobID = resp.JobID
	w.jobStatus = podcastapi.JobState(resp.Status)
	w.startPollingLocked(resp.JobID, draft.Title)
	w.mu.Unlock()
	logging.WithContext(jobCtx, w.logger).Info("assembly queued", slog.String("status", resp.Status))
	w.emit()
	return resp.JobID, nil
}

// submissionStaleLocked reports why the submission numbered gen may no
// longer change state, or nil when it is still current.
func (w *Wizard) submissionStaleLocked(gen uint64) error {
	if w.closed {
		return ErrClosed
	}
	if gen != w.submitGen {
		return ErrCancelled
	}
	return nil
}

func (w *Wizard) cancelSubmitLocked() {
	if w.submitCancel != nil {
		w.submitCancel()
		w.submitCancel = nil
	}
	w.submitGen++
}

// ResumePolling restarts polling the retained job after a transport failure.
func (w *Wizard) ResumePolling() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	defer func() {
		w.mu.Unlock()
		w.emit()
	}()
	if w.publish != PublishIdle || w.jobID == "" || !errors.Is(w.lastErr, services.ErrPollingTransport) {
		return validationError("resume polling", "no interrupted job to resume")
	}
	w.publish = PublishPolling
	w.lastErr = nil
	w.startPollingLocked(w.jobID, w.draft.Title)
	return nil
}

// Wait blocks until the active polling loop ends or ctx is done.
func (w *Wizard) Wait(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	done := w.pollDone
	w.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return w.Snapshot(), ctx.Err()
		}
	}
	return w.Snapshot(), nil
}

func (w *Wizard) startPollingLocked(jobID, title string) {
	ctx, cancel := context.WithCancel(services.WithJobID(w.ctx, jobID))
	done := make(chan struct{})
	w.pollCancel = cancel
	w.pollDone = done
	poller := NewPoller(w.backend, w.pollInterval)

	go func() {
		defer close(done)
		defer cancel()
		status, err := poller.Run(ctx, jobID, func(s *podcastapi.JobStatus) {
			w.observe(ctx, done, s)
		})
		w.finishPoll(ctx, done, jobID, title, status, err)
	}()
}

// stopPollingLocked cancels the active loop and returns its done channel.
// It returns nil while the loop is inside a listener call, because the
// caller may be that listener.
func (w *Wizard) stopPollingLocked() chan struct{} {
	if w.pollCancel == nil {
		return nil
	}
	w.pollCancel()
	done := w.pollDone
	w.pollCancel = nil
	w.pollDone = nil
	if done == w.pollEmitting {
		return nil
	}
	return done
}

// emitPoll is emit for the polling loop identified by done.
func (w *Wizard) emitPoll(done chan struct{}) {
	if w.listener == nil {
		return
	}
	w.mu.Lock()
	w.pollEmitting = done
	snap := w.snapshotLocked()
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		if w.pollEmitting == done {
			w.pollEmitting = nil
		}
		w.mu.Unlock()
	}()
	w.listener(snap)
}

func (w *Wizard) observe(ctx context.Context, done chan struct{}, status *podcastapi.JobStatus) {
	w.mu.Lock()
	if ctx.Err() != nil || w.closed {
		w.mu.Unlock()
		return
	}
	w.jobStatus = status.Status
	w.mu.Unlock()
	logging.WithContext(ctx, w.logger).Debug("job status", slog.String("status", string(status.Status)))
	w.emitPoll(done)
}

func (w *Wizard) finishPoll(ctx context.Context, done chan struct{}, jobID, title string, status *podcastapi.JobStatus, err error) {
	logger := logging.WithContext(ctx, w.logger)
	w.mu.Lock()
	if ctx.Err() != nil || w.closed || w.jobID != jobID {
		w.mu.Unlock()
		return
	}

	switch {
	case err != nil:
		w.publish = PublishIdle
		w.lastErr = err
		w.mu.Unlock()
		logger.Warn("polling stopped", logging.Error(err))
		w.emitPoll(done)
		return

	case status.Status == podcastapi.JobProcessed:
		w.publish = PublishDone
		w.step = StepDone
		w.jobStatus = status.Status
		w.episode = status.Episode
		w.lastErr = nil
		w.draft = Draft{TTSValues: map[string]string{}}
		w.mu.Unlock()
		logger.Info("assembly complete")
		w.recordFinished(ctx, jobID, status.Status, "")
		w.notify(ctx, func(ctx context.Context, n Notifier) error {
			return n.JobCompleted(ctx, title, jobID)
		})

	default:
		message := strings.TrimSpace(status.Error)
		if message == "" {
			message = strings.TrimSpace(status.Message)
		}
		if message == "" {
			message = "assembly failed"
		}
		w.publish = PublishIdle
		w.jobID = ""
		w.jobStatus = ""
		w.lastErr = services.Wrap(services.ErrJob, "wizard", "assemble", message, nil)
		w.mu.Unlock()
		logger.Warn("assembly failed", slog.String("reason", message))
		w.recordFinished(ctx, jobID, status.Status, message)
		w.notify(ctx, func(ctx context.Context, n Notifier) error {
			return n.JobFailed(ctx, title, jobID, message)
		})
	}
	w.emitPoll(done)
}

func (w *Wizard) recordFinished(ctx context.Context, jobID string, state podcastapi.JobState, message string) {
	w.record(ctx, func(ctx context.Context, rec JobRecorder) error {
		return rec.JobFinished(ctx, jobID, state, message)
	})
}

func (w *Wizard) record(ctx context.Context, fn func(context.Context, JobRecorder) error) {
	if w.recorder == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), w.recorder); err != nil {
		logging.WithContext(ctx, w.logger).Warn("job ledger update failed", logging.Error(err))
	}
}

func (w *Wizard) notify(ctx context.Context, fn func(context.Context, Notifier) error) {
	if w.notifier == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), w.notifier); err != nil {
		logging.WithContext(ctx, w.logger).Warn("notification failed", logging.Error(err))
	}
}
