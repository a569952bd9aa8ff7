package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"podcastplus/internal/logging"
	"podcastplus/internal/services"
)

// ErrSuperseded is returned by an upload that a newer upload replaced.
var ErrSuperseded = errors.New("upload superseded")

type slot int

const (
	slotContent slot = iota
	slotCover
	slotCount
)

func (s slot) String() string {
	if s == slotCover {
		return "cover"
	}
	return "content"
}

type uploadSlot struct {
	state  UploadState
	gen    uint64
	cancel context.CancelFunc
	err    error
}

// UploadContent sends the episode audio and records the stored filename.
// A call made while another content upload is in flight cancels the older
// one; only the newest upload can set the filename.
func (w *Wizard) UploadContent(ctx context.Context, name string, content io.Reader) (string, error) {
	return w.upload(ctx, slotContent, name, content)
}

// UploadCover sends an optional cover image for the episode.
func (w *Wizard) UploadCover(ctx context.Context, name string, content io.Reader) (string, error) {
	return w.upload(ctx, slotCover, name, content)
}

func (w *Wizard) upload(ctx context.Context, which slot, name string, content io.Reader) (string, error) {
	operation := "upload " + which.String()
	if strings.TrimSpace(name) == "" || content == nil {
		return "", validationError(operation, "a file is required")
	}

	w.mu.Lock()
	if err := w.editableLocked(operation); err != nil {
		w.mu.Unlock()
		return "", err
	}
	s := &w.uploads[which]
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	uctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = UploadInFlight
	s.err = nil
	w.setFilenameLocked(which, "")
	category := w.categories[which]
	w.mu.Unlock()
	w.emit()
	defer cancel()

	logger := logging.WithContext(uctx, w.logger)
	logger.Info("upload started", slog.String("slot", which.String()), slog.String("file", name))
	item, err := w.backend.Upload(uctx, category, name, content)

	w.mu.Lock()
	if w.closed || s.gen != gen {
		w.mu.Unlock()
		logger.Debug("upload result discarded", slog.String("slot", which.String()), slog.String("file", name))
		return "", ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		s.state = UploadFailed
		s.err = services.Wrap(services.ErrUpload, "wizard", operation, fmt.Sprintf("upload %s", name), err)
		w.lastErr = s.err
		w.setFilenameLocked(which, "")
		result := s.err
		w.mu.Unlock()
		logger.Warn("upload failed", slog.String("slot", which.String()), logging.Error(err))
		w.emit()
		return "", result
	}
	s.state = UploadReady
	w.setFilenameLocked(which, item.Filename)
	w.lastErr = nil
	w.mu.Unlock()
	logger.Info("upload complete", slog.String("slot", which.String()), slog.String("filename", item.Filename))
	w.emit()
	return item.Filename, nil
}

func (w *Wizard) setFilenameLocked(which slot, filename string) {
	switch which {
	case slotContent:
		w.draft.ContentFilename = filename
	case slotCover:
		w.draft.CoverFilename = filename
	}
}

func (w *Wizard) cancelUploadsLocked() {
	for i := range w.uploads {
		if w.uploads[i].cancel != nil {
			w.uploads[i].cancel()
			w.uploads[i].cancel = nil
		}
		w.uploads[i].gen++
	}
}
