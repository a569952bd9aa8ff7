package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"podcastplus/internal/logging"
)

const defaultPollInterval = 250 * time.Millisecond

// Options selects which lines Tail emits.
type Options struct {
	// Lines limits the initial output to the last N matching lines. Zero
	// emits every matching line.
	Lines int
	// JobID keeps only lines written for one assembly job.
	JobID string
	// Follow keeps reading appended lines until ctx ends.
	Follow bool
	// Poll is the follow-mode read interval.
	Poll time.Duration
}

// Tail writes matching log lines from path to emit. A missing file yields no
// lines; in follow mode Tail waits for the file to appear. Follow mode ends
// without error when ctx is cancelled.
func Tail(ctx context.Context, path string, opts Options, emit func(string)) error {
	match := matcher(opts.JobID)
	lines, offset, err := readLast(path, opts.Lines, match)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, newOffset, err := readFrom(path, offset, match)
		if err != nil {
			return err
		}
		offset = newOffset
		for _, line := range next {
			emit(line)
		}
	}
}

// matcher recognises both the console (job_id=X) and JSON ("job_id":"X") forms.
func matcher(jobID string) func(string) bool {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return func(string) bool { return true }
	}
	console := logging.FieldJobID + "=" + jobID
	quoted := fmt.Sprintf("%s=%q", logging.FieldJobID, jobID)
	jsonForm := fmt.Sprintf("%q:%q", logging.FieldJobID, jobID)
	return func(line string) bool {
		return strings.Contains(line, jsonForm) ||
			strings.Contains(line, quoted) ||
			containsField(line, console)
	}
}

// containsField matches field only when it is not a prefix of a longer value.
func containsField(line, field string) bool {
	for {
		idx := strings.Index(line, field)
		if idx < 0 {
			return false
		}
		end := idx + len(field)
		if end == len(line) || line[end] == ' ' {
			return true
		}
		line = line[end:]
	}
}

func readLast(path string, limit int, match func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	} else if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	var all []string
	var ring []string
	idx, count := 0, 0
	if limit > 0 {
		ring = make([]string, limit)
	}
	offset, err := scanLines(file, func(line string) {
		if !match(line) {
			return
		}
		if limit <= 0 {
			all = append(all, line)
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		return all, offset, nil
	}
	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = idx
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%limit])
	}
	return lines, offset, nil
}

func readFrom(path string, offset int64, match func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	// Truncated or rotated: start over.
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	consumed, err := scanLines(file, func(line string) {
		if match(line) {
			lines = append(lines, line)
		}
	})
	if err != nil {
		return nil, offset, err
	}
	return lines, offset + consumed, nil
}

// scanLines feeds complete lines to fn and returns the bytes consumed. A
// trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}
