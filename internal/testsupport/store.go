package testsupport

import (
	"context"
	"testing"

	"podcastplus/internal/config"
	"podcastplus/internal/history"
	"podcastplus/internal/wizard"
)

// MustOpenHistory opens the job ledger for cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// RecordJob submits a ledger entry with placeholder template and show ids.
func RecordJob(t testing.TB, store *history.Store, jobID, title string) {
	t.Helper()

	err := store.JobSubmitted(context.Background(), wizard.JobRecord{
		JobID:      jobID,
		EpisodeID:  "ep-" + jobID,
		TemplateID: "T1",
		ShowID:     "S1",
		Title:      title,
		Filename:   "ep1.mp3",
	})
	if err != nil {
		t.Fatalf("JobSubmitted: %v", err)
	}
}
