package segments

import (
	"errors"
	"fmt"

	"podcastplus/internal/services"
)

var (
	// ErrContentFixed is returned when a reorder tries to drag the content segment.
	ErrContentFixed = errors.New("content segment cannot be moved")
	// ErrBadPlacement is returned when an intro or outro would land on the wrong side of content.
	ErrBadPlacement = errors.New("segment placement violates ordering rules")
	// ErrContentCount is returned when a template does not hold exactly one content segment.
	ErrContentCount = errors.New("template must contain exactly one content segment")
)

// ContentIndex returns the index of the content segment, or -1 when absent.
func ContentIndex(list []Segment) int {
	for i, seg := range list {
		if seg.Kind == KindContent {
			return i
		}
	}
	return -1
}

// ValidateOrder checks the placement rules against a full segment list.
func ValidateOrder(list []Segment) error {
	contentIdx := -1
	for i, seg := range list {
		if seg.Kind != KindContent {
			continue
		}
		if contentIdx >= 0 {
			return rejection("validate", ErrContentCount)
		}
		contentIdx = i
	}
	if contentIdx < 0 {
		return rejection("validate", ErrContentCount)
	}
	for i, seg := range list {
		switch Placement(seg.Kind) {
		case BeforeContent:
			if i > contentIdx {
				return rejection("validate", fmt.Errorf("%w: %s at %d must precede content at %d", ErrBadPlacement, seg.Kind, i, contentIdx))
			}
		case AfterContent:
			if i < contentIdx {
				return rejection("validate", fmt.Errorf("%w: %s at %d must follow content at %d", ErrBadPlacement, seg.Kind, i, contentIdx))
			}
		}
	}
	return nil
}

// Move relocates the segment at from so that it ends up at index to. The input
// is never modified. A rejected move returns a copy of the original order and
// the reason; moves are all-or-nothing.
func Move(list []Segment, from, to int) ([]Segment, error) {
	original := clone(list)
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return original, rejection("move", fmt.Errorf("index out of range (from=%d to=%d len=%d)", from, to, len(list)))
	}
	if !list[from].Draggable() {
		return original, rejection("move", ErrContentFixed)
	}
	if from == to {
		return original, nil
	}

	moved := list[from]
	next := make([]Segment, 0, len(list))
	next = append(next, list[:from]...)
	next = append(next, list[from+1:]...)
	next = insertAt(next, moved, to)

	if err := ValidateOrder(next); err != nil {
		return original, err
	}
	return next, nil
}

// Insert places seg at index at (clamped to the list bounds) under the same
// rules as Move.
func Insert(list []Segment, seg Segment, at int) ([]Segment, error) {
	original := clone(list)
	if at < 0 {
		at = 0
	}
	if at > len(list) {
		at = len(list)
	}
	next := insertAt(clone(list), seg, at)
	if err := ValidateOrder(next); err != nil {
		return original, err
	}
	return next, nil
}

// Remove deletes the segment with id. Removing the content segment is rejected.
func Remove(list []Segment, id string) ([]Segment, error) {
	original := clone(list)
	for i, seg := range list {
		if seg.ID != id {
			continue
		}
		if seg.Kind == KindContent {
			return original, rejection("remove", ErrContentCount)
		}
		next := make([]Segment, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		return next, nil
	}
	return original, services.Wrap(services.ErrNotFound, "segments", "remove", fmt.Sprintf("segment %s", id), nil)
}

func insertAt(list []Segment, seg Segment, at int) []Segment {
	list = append(list, Segment{})
	copy(list[at+1:], list[at:])
	list[at] = seg
	return list
}

func clone(list []Segment) []Segment {
	if list == nil {
		return nil
	}
	out := make([]Segment, len(list))
	copy(out, list)
	return out
}

func rejection(operation string, err error) error {
	return services.Wrap(services.ErrValidation, "segments", operation, "rejected", err)
}
