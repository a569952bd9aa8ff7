package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"podcastplus/internal/config"
	"podcastplus/internal/history"
	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
	"podcastplus/internal/testsupport"
	"podcastplus/internal/wizard"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	return testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
}

func record(t *testing.T, store *history.Store, jobID, title string) {
	t.Helper()
	testsupport.RecordJob(t, store, jobID, title)
}

func TestOpenUsesStateDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.StateDir, "logs")
	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if store.Path() != cfg.HistoryPath() {
		t.Fatalf("path = %s, want %s", store.Path(), cfg.HistoryPath())
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestReopenKeepsJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	record(t, store, "job-1", "Pilot")
	_ = store.Close()

	reopened, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	job, err := reopened.Get(context.Background(), "job-1")
	if err != nil || job == nil || job.Title != "Pilot" {
		t.Fatalf("Get after reopen = %+v, %v", job, err)
	}
}

func TestJobLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	record(t, store, "job-42", "Pilot")

	job, err := store.Get(ctx, "job-42")
	if err != nil || job == nil {
		t.Fatalf("Get = %+v, %v", job, err)
	}
	if job.Status != podcastapi.JobQueued || job.Terminal() || job.EpisodeID != "ep-job-42" || job.SubmittedAt.IsZero() {
		t.Fatalf("unexpected new job %+v", job)
	}

	if err := store.UpdateStatus(ctx, "job-42", podcastapi.JobProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.JobFinished(ctx, "job-42", podcastapi.JobError, "ffmpeg failure"); err != nil {
		t.Fatalf("JobFinished: %v", err)
	}
	// A second outcome must not overwrite the first.
	if err := store.JobFinished(ctx, "job-42", podcastapi.JobProcessed, ""); err != nil {
		t.Fatalf("JobFinished again: %v", err)
	}
	if err := store.UpdateStatus(ctx, "job-42", podcastapi.JobProcessing); err != nil {
		t.Fatalf("UpdateStatus after finish: %v", err)
	}

	job, _ = store.Get(ctx, "job-42")
	if job.Status != podcastapi.JobError || job.ErrorMessage != "ffmpeg failure" || !job.Terminal() || job.FinishedAt == nil {
		t.Fatalf("unexpected terminal job %+v", job)
	}
}

func TestJobFinishedRejects(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.JobFinished(ctx, "missing", podcastapi.JobProcessed, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	record(t, store, "job-1", "Pilot")
	if err := store.JobFinished(ctx, "job-1", podcastapi.JobProcessing, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-terminal status, got %v", err)
	}
	if err := store.JobSubmitted(ctx, wizard.JobRecord{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty job id, got %v", err)
	}
}

func TestListPendingAndClear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	record(t, store, "job-1", "First")
	record(t, store, "job-2", "Second")
	record(t, store, "job-3", "Third")
	if err := store.JobFinished(ctx, "job-2", podcastapi.JobProcessed, ""); err != nil {
		t.Fatalf("JobFinished: %v", err)
	}

	all, err := store.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List = %d, %v", len(all), err)
	}
	if all[0].JobID != "job-3" || all[2].JobID != "job-1" {
		t.Fatalf("expected newest first, got %s..%s", all[0].JobID, all[2].JobID)
	}
	limited, _ := store.List(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}

	pending, err := store.Pending(ctx)
	if err != nil || len(pending) != 2 || pending[0].JobID != "job-1" || pending[1].JobID != "job-3" {
		t.Fatalf("Pending = %+v, %v", pending, err)
	}

	cleared, err := store.ClearFinished(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearFinished = %d, %v", cleared, err)
	}
	removed, err := store.Remove(ctx, "job-1")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if removed, _ := store.Remove(ctx, "job-1"); removed {
		t.Fatal("second remove should report false")
	}
	n, err := store.Clear(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
}
