package synth

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"steward/internal/scoring"
)

func TestCandidateGoalsDeterministicUnderSeed(t *testing.T) {
	first := New(42).CandidateGoals(3)
	second := New(42).CandidateGoals(3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different candidates:\n%+v\n%+v", first, second)
	}
}

func TestCandidateGoalsBounds(t *testing.T) {
	candidates := New(7).CandidateGoals(3)
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.Title == "" || c.Description == "" {
			t.Fatalf("candidate missing text: %+v", c)
		}
		if c.Priority < 0.3 || c.Priority >= 0.9 {
			t.Fatalf("priority out of range: %f", c.Priority)
		}
		if c.Option.Name != c.Title {
			t.Fatalf("option name should match title: %+v", c)
		}
		if len(c.Option.Scores) != 5 {
			t.Fatalf("expected 5 criterion scores, got %d", len(c.Option.Scores))
		}
		for criterion, score := range c.Option.Scores {
			if score < 0 || score >= 1 {
				t.Fatalf("score for %s out of range: %f", criterion, score)
			}
		}
	}
}

func TestCandidateGoalsClampsCount(t *testing.T) {
	if got := len(New(1).CandidateGoals(0)); got != 1 {
		t.Fatalf("expected 1 candidate for n=0, got %d", got)
	}
	if got := len(New(1).CandidateGoals(-5)); got != 1 {
		t.Fatalf("expected 1 candidate for negative n, got %d", got)
	}
}

func TestDrawBounds(t *testing.T) {
	s := New(3)
	for i := 0; i < 100; i++ {
		v := s.Draw(0.5, 0.95)
		if v < 0.5 || v >= 0.95 {
			t.Fatalf("draw out of range: %f", v)
		}
	}
	if v := s.Draw(0.7, 0.7); v != 0.7 {
		t.Fatalf("expected lo for degenerate range, got %f", v)
	}
	if v := s.Draw(0.9, 0.1); v != 0.9 {
		t.Fatalf("expected lo for inverted range, got %f", v)
	}
}

func TestProgressIncrementBounds(t *testing.T) {
	s := New(11)
	for i := 0; i < 100; i++ {
		inc := s.ProgressIncrement(0.5)
		if inc < 0.02*1.0 || inc >= 0.10*1.0 {
			t.Fatalf("increment out of range for priority 0.5: %f", inc)
		}
	}

	// Priority outside [0,1] is clamped before the speed factor applies.
	for i := 0; i < 100; i++ {
		inc := s.ProgressIncrement(5)
		if inc >= 0.10*1.5 {
			t.Fatalf("increment too large for clamped priority: %f", inc)
		}
		if inc <= 0 {
			t.Fatalf("increment must be positive: %f", inc)
		}
	}
}

func TestReasoningMentionsChoice(t *testing.T) {
	chosen := scoring.OptionScore{Index: 1, Name: "Expand state hygiene", Weighted: 0.712}
	text := Reasoning("goal_selection", chosen, 0.84)
	if !strings.Contains(text, "Expand state hygiene") {
		t.Fatalf("reasoning missing option name: %q", text)
	}
	if !strings.Contains(text, "goal_selection") {
		t.Fatalf("reasoning missing decision type: %q", text)
	}
	if !strings.Contains(text, "0.712") || !strings.Contains(text, "0.840") {
		t.Fatalf("reasoning missing numbers: %q", text)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadOptionsFileKeyedList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yml")
	writeFile(t, path, `
options:
  - name: conservative
    scores:
      utility: 0.6
      risk: 0.8
  - name: ambitious
    scores:
      utility: 0.9
      risk: 0.4
`)

	options, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	if len(options) != 2 || options[0].Name != "conservative" {
		t.Fatalf("unexpected options: %+v", options)
	}
	if options[1].Scores["utility"] != 0.9 {
		t.Fatalf("unexpected scores: %+v", options[1].Scores)
	}
}

func TestLoadOptionsFileTopLevelList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yml")
	writeFile(t, path, `
- name: only
  scores:
    utility: 0.5
`)

	options, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("load options: %v", err)
	}
	if len(options) != 1 || options[0].Name != "only" {
		t.Fatalf("unexpected options: %+v", options)
	}
}

func TestLoadOptionsFileRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	missingName := filepath.Join(dir, "missing_name.yml")
	writeFile(t, missingName, `
options:
  - scores:
      utility: 0.5
`)
	if _, err := LoadOptionsFile(missingName); err == nil {
		t.Fatalf("expected error for option without name")
	}

	noScores := filepath.Join(dir, "no_scores.yml")
	writeFile(t, noScores, `
options:
  - name: empty
`)
	if _, err := LoadOptionsFile(noScores); err == nil {
		t.Fatalf("expected error for option without scores")
	}

	if _, err := LoadOptionsFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
