package segments

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the structural role a segment plays in a template.
type Kind string

const (
	KindIntro       Kind = "intro"
	KindContent     Kind = "content"
	KindOutro       Kind = "outro"
	KindCommercial  Kind = "commercial"
	KindSoundEffect Kind = "sound_effect"
	KindTransition  Kind = "transition"
)

var kinds = []Kind{KindIntro, KindContent, KindOutro, KindCommercial, KindSoundEffect, KindTransition}

// Kinds lists every known segment kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind maps user or API input onto a Kind.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, k := range kinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown segment kind %q", value)
}

// Label returns the human form, e.g. "Sound Effect".
func (k Kind) Label() string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(k), "_", " "))
}

// Region constrains where a kind may sit relative to the content segment.
type Region int

const (
	// Anywhere places no constraint on the segment.
	Anywhere Region = iota
	// BeforeContent requires an index lower than the content segment's.
	BeforeContent
	// AfterContent requires an index higher than the content segment's.
	AfterContent
	// Fixed marks the content segment itself; it is never dragged.
	Fixed
)

// Placement is the single source of truth for segment ordering rules.
func Placement(k Kind) Region {
	switch k {
	case KindContent:
		return Fixed
	case KindIntro:
		return BeforeContent
	case KindOutro:
		return AfterContent
	default:
		return Anywhere
	}
}
