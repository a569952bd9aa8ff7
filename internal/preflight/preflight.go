package preflight

import (
	"context"

	"podcastplus/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg. The session check runs only
// when id is non-nil.
func RunAll(ctx context.Context, cfg *config.Config, id Identity, authenticated bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Logging.ToFile {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	api := CheckAPI(ctx, cfg.API.BaseURL)
	results = append(results, api)
	if id != nil && api.Passed {
		results = append(results, CheckSession(ctx, id, authenticated))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
