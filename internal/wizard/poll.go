package wizard

import (
	"context"
	"fmt"
	"time"

	"podcastplus/internal/podcastapi"
	"podcastplus/internal/services"
)

// DefaultPollInterval is the gap between job status requests.
const DefaultPollInterval = 5 * time.Second

// StatusChecker reads the state of an assembly job.
type StatusChecker interface {
	JobStatus(ctx context.Context, jobID string) (*podcastapi.JobStatus, error)
}

// Poller checks a job on a fixed interval until it reaches a terminal state.
// Requests are chained: the next one is scheduled only after the previous
// response arrives, so at most one request per job is in flight.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
}

// NewPoller returns a poller. Non-positive intervals fall back to DefaultPollInterval.
func NewPoller(checker StatusChecker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{checker: checker, interval: interval}
}

// Interval returns the gap between requests.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls jobID until a terminal status, a transport failure, or ctx ends.
// observe, when non-nil, sees every status response including the terminal one.
// A failed status request stops polling and reports ErrPollingTransport; the
// job itself may still be running.
func (p *Poller) Run(ctx context.Context, jobID string, observe func(*podcastapi.JobStatus)) (*podcastapi.JobStatus, error) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		status, err := p.checker.JobStatus(ctx, jobID)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			return nil, services.Wrap(services.ErrPollingTransport, "wizard", "poll job status", fmt.Sprintf("job %s", jobID), err)
		}
		if observe != nil {
			observe(status)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		if status.Status.Terminal() {
			return status, nil
		}
		timer.Reset(p.interval)
	}
}
