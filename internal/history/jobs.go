package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
	"podcastplus/internal/wizard"
)

var _ wizard.JobRecorder = (*Store)(nil)

// Job is a ledger entry for one assembly job.
type Job struct {
	JobID           string
	EpisodeID       string
	TemplateID      string
	ShowID          string
	Title           string
	ContentFilename string
	Status          podcastapi.JobState
	ErrorMessage    string
	SubmittedAt     time.Time
	UpdatedAt       time.Time
	FinishedAt      *time.Time
}

// Terminal reports whether the job reached processed or error.
func (j *Job) Terminal() bool {
	return j.FinishedAt != nil || j.Status.Terminal()
}

const jobColumns = "job_id, episode_id, template_id, show_id, title, content_filename, status, error_message, submitted_at, updated_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		episodeID    sql.NullString
		filename     sql.NullString
		status       string
		errorMessage sql.NullString
		submittedRaw string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&job.JobID,
		&episodeID,
		&job.TemplateID,
		&job.ShowID,
		&job.Title,
		&filename,
		&status,
		&errorMessage,
		&submittedRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.EpisodeID = episodeID.String
	job.ContentFilename = filename.String
	job.Status = podcastapi.JobState(status)
	job.ErrorMessage = errorMessage.String
	if t, err := parseTime(submittedRaw); err == nil {
		job.SubmittedAt = t
	}
	if t, err := parseTime(updatedRaw); err == nil {
		job.UpdatedAt = t
	}
	if finishedRaw.Valid {
		if t, err := parseTime(finishedRaw.String); err == nil {
			job.FinishedAt = &t
		}
	}
	return &job, nil
}

// timeLayout keeps a fixed-width fraction so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
}

func timestamp() string {
	return time.Now().UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// JobSubmitted records a newly queued job.
func (s *Store) JobSubmitted(ctx context.Context, rec wizard.JobRecord) error {
	if strings.TrimSpace(rec.JobID) == "" {
		return services.Wrap(services.ErrValidation, "history", "record job", "job id required", nil)
	}
	now := timestamp()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, NULL)
        ON CONFLICT(job_id) DO UPDATE SET
            episode_id = excluded.episode_id,
            title = excluded.title,
            updated_at = excluded.updated_at`,
		rec.JobID,
		nullableString(rec.EpisodeID),
		rec.TemplateID,
		rec.ShowID,
		rec.Title,
		nullableString(rec.Filename),
		podcastapi.JobQueued,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateStatus stores a non-terminal status seen while polling. Terminal jobs
// are left unchanged.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, state podcastapi.JobState) error {
	if state.Terminal() {
		return s.JobFinished(ctx, jobID, state, "")
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE job_id = ? AND finished_at IS NULL`,
		state, timestamp(), jobID,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// JobFinished marks a job terminal. A job that is already terminal keeps its
// first outcome.
func (s *Store) JobFinished(ctx context.Context, jobID string, state podcastapi.JobState, message string) error {
	if !state.Terminal() {
		return services.Wrap(services.ErrValidation, "history", "finish job", fmt.Sprintf("status %q is not terminal", state), nil)
	}
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?, finished_at = ?
        WHERE job_id = ? AND finished_at IS NULL`,
		state, nullableString(message), now, now, jobID,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	existing, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if existing == nil {
		return services.Wrap(services.ErrNotFound, "history", "finish job", fmt.Sprintf("job %s", jobID), nil)
	}
	return nil
}

// Get returns the job with jobID, or nil when it is not recorded.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns the newest jobs first. A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY submitted_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Pending returns jobs that have not reached a terminal state, oldest first.
func (s *Store) Pending(ctx context.Context) ([]*Job, error) {
	return s.query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE finished_at IS NULL ORDER BY submitted_at, rowid`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Remove deletes a job entry.
func (s *Store) Remove(ctx context.Context, jobID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes terminal jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE finished_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every job.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}
