// Package metric defines the closed set of metered actions and their
// quota semantics.
package metric

import (
	"errors"
	"strings"
)

// Metric identifies a metered action. The set is closed; a metric is
// never reclassified at runtime.
type Metric string

const (
	PromptCreation   Metric = "prompt_creation"
	AIGeneration     Metric = "ai_generation"
	NoteCreation     Metric = "note_creation"
	DocumentCreation Metric = "document_creation"
	VideoCreation    Metric = "video_creation"
	BookmarkCreation Metric = "bookmark_creation"
	CategoryCreation Metric = "category_creation"
)

// Unlimited is the quota value meaning "no limit". Enforcement must treat
// 0 as no limit and short-circuit before reading usage.
const Unlimited int64 = 0

var ErrUnknownMetric = errors.New("unknown_metric")

// lifetime marks metrics whose quota applies to the total live count of
// owned rows rather than a per-cycle counter.
var lifetime = map[Metric]bool{
	PromptCreation:   false,
	AIGeneration:     false,
	NoteCreation:     true,
	DocumentCreation: true,
	VideoCreation:    true,
	BookmarkCreation: true,
	CategoryCreation: true,
}

var ordered = []Metric{
	PromptCreation,
	AIGeneration,
	NoteCreation,
	DocumentCreation,
	VideoCreation,
	BookmarkCreation,
	CategoryCreation,
}

// All returns every known metric in display order.
func All() []Metric {
	out := make([]Metric, len(ordered))
	copy(out, ordered)
	return out
}

// Parse validates a metric code coming from an API boundary.
func Parse(code string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := lifetime[m]; !ok {
		return "", ErrUnknownMetric
	}
	return m, nil
}

// IsLifetime reports whether the metric's quota applies to the total live
// count instead of resetting every billing cycle.
func (m Metric) IsLifetime() bool {
	return lifetime[m]
}

func (m Metric) String() string { return string(m) }

// IsUnlimited reports whether a resolved limit means "no limit".
func IsUnlimited(limit int64) bool { return limit <= Unlimited }
