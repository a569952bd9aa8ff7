package podcastapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"podcastplus/internal/services"
)

// StatusError reports a non-2xx API response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps well-known HTTP statuses onto service markers.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return services.ErrUnauthorized
	case http.StatusNotFound:
		return services.ErrNotFound
	default:
		return nil
	}
}

// parseDetail extracts the FastAPI "detail" field, which is either a string or
// a list of validation problems.
func parseDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return truncate(trimmed, 256)
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	var problems []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &problems); err == nil && len(problems) > 0 {
		parts := make([]string, 0, len(problems))
		for _, p := range problems {
			if len(p.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", p.Loc[len(p.Loc)-1], p.Msg))
			} else {
				parts = append(parts, p.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return truncate(string(envelope.Detail), 256)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
