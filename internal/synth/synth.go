// Package synth fabricates the numeric inputs the rest of the system scores
// and records. Every value it produces is a seeded random draw or a template
// substitution: a simulation source, not model output. Callers that want
// real inputs supply their own option records instead (see LoadOptionsFile).
package synth

import (
	"fmt"
	"math/rand"
	"time"

	"steward/internal/scoring"
)

// Synthesizer draws candidate goals, progress increments, and pass-through
// metric values from a single rand source so runs are reproducible under a
// fixed seed.
type Synthesizer struct {
	rng *rand.Rand
}

// New returns a synthesizer seeded with seed. A zero seed falls back to the
// current time.
func New(seed int64) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

// Candidate is a synthesized goal proposal plus the option record the
// scoring engine evaluates it with.
type Candidate struct {
	Title       string
	Description string
	Priority    float64
	Option      scoring.Option
}

var goalAreas = []string{
	"knowledge coverage",
	"response quality",
	"task throughput",
	"state hygiene",
	"observation depth",
	"recovery drills",
}

var goalActions = []string{
	"Expand",
	"Consolidate",
	"Stress-test",
	"Rebalance",
	"Document",
}

// CandidateGoals synthesizes n distinct goal proposals with random
// criterion scores in [0,1].
func (s *Synthesizer) CandidateGoals(n int) []Candidate {
	if n <= 0 {
		n = 1
	}

	areas := s.rng.Perm(len(goalAreas))
	candidates := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		area := goalAreas[areas[i%len(areas)]]
		action := goalActions[s.rng.Intn(len(goalActions))]
		title := fmt.Sprintf("%s %s", action, area)

		candidates = append(candidates, Candidate{
			Title:       title,
			Description: fmt.Sprintf("Autonomously generated goal: %s.", title),
			Priority:    s.Draw(0.3, 0.9),
			Option: scoring.Option{
				Name: title,
				Scores: map[string]float64{
					"utility":     s.Draw(0, 1),
					"feasibility": s.Draw(0, 1),
					"risk":        s.Draw(0, 1),
					"ethics":      s.Draw(0, 1),
					"stakeholder": s.Draw(0, 1),
				},
			},
		})
	}
	return candidates
}

// ProgressIncrement draws the per-cycle progress step for a goal. Higher
// priority goals move a little faster; the result is always positive.
func (s *Synthesizer) ProgressIncrement(priority float64) float64 {
	base := s.Draw(0.02, 0.10)
	return base * (0.5 + clamp01(priority))
}

// Draw returns a uniform value in [lo, hi).
func (s *Synthesizer) Draw(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}

// Reasoning assembles the free-text rationale recorded with a decision.
// It is template substitution over the chosen option, nothing more.
func Reasoning(decisionType string, chosen scoring.OptionScore, confidence float64) string {
	return fmt.Sprintf(
		"Selected %q for %s: weighted score %.3f, confidence %.3f.",
		chosen.Name, decisionType, chosen.Weighted, confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
