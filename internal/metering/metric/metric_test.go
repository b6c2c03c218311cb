package metric

import (
	"errors"
	"testing"
)

func TestParseAcceptsKnownMetrics(t *testing.T) {
	for _, m := range All() {
		parsed, err := Parse(m.String())
		if err != nil {
			t.Fatalf("parse %q: %v", m, err)
		}
		if parsed != m {
			t.Fatalf("parse %q = %q", m, parsed)
		}
	}
}

func TestParseNormalizesInput(t *testing.T) {
	parsed, err := Parse("  Prompt_Creation ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != PromptCreation {
		t.Fatalf("parse = %q, want %q", parsed, PromptCreation)
	}
}

func TestParseRejectsUnknownMetric(t *testing.T) {
	if _, err := Parse("api_calls"); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric for empty input, got %v", err)
	}
}

func TestLifetimeClassification(t *testing.T) {
	cycleScoped := []Metric{PromptCreation, AIGeneration}
	lifetimeScoped := []Metric{NoteCreation, DocumentCreation, VideoCreation, BookmarkCreation, CategoryCreation}

	for _, m := range cycleScoped {
		if m.IsLifetime() {
			t.Fatalf("%q classified lifetime, want cycle-scoped", m)
		}
	}
	for _, m := range lifetimeScoped {
		if !m.IsLifetime() {
			t.Fatalf("%q classified cycle-scoped, want lifetime", m)
		}
	}
	if got := len(All()); got != len(cycleScoped)+len(lifetimeScoped) {
		t.Fatalf("metric set has %d entries, want %d", got, len(cycleScoped)+len(lifetimeScoped))
	}
}

func TestIsUnlimited(t *testing.T) {
	if !IsUnlimited(Unlimited) {
		t.Fatal("0 must mean unlimited")
	}
	if !IsUnlimited(-1) {
		t.Fatal("negative limits degrade to unlimited")
	}
	if IsUnlimited(1) {
		t.Fatal("positive limit reported unlimited")
	}
}
