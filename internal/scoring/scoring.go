package scoring

import (
	"fmt"
	"sort"
)

// neutralScore is assumed for any weighted criterion an option does not
// supply.
const neutralScore = 0.5

// Option is a caller-supplied candidate: a name plus a mapping of criterion
// name to a score in roughly [0,1]. The scoring engine never mutates it.
type Option struct {
	Name   string             `json:"name" yaml:"name"`
	Scores map[string]float64 `json:"scores" yaml:"scores"`
}

// Weights maps criterion names to fixed weights. Criteria present in an
// option but absent here are ignored.
type Weights map[string]float64

// DefaultWeights returns the standard decision weights. They are constants
// set once here; there is no learning or calibration against outcomes.
func DefaultWeights() Weights {
	return Weights{
		"utility":     0.25,
		"feasibility": 0.20,
		"risk":        0.15,
		"ethics":      0.20,
		"stakeholder": 0.20,
	}
}

// OptionScore is the weighted sum computed for one option.
type OptionScore struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Weighted float64 `json:"weighted"`
}

// Result holds the outcome of evaluating a set of options.
type Result struct {
	Scores     []OptionScore `json:"scores"`
	Chosen     OptionScore   `json:"chosen"`
	Confidence float64       `json:"confidence"`
}

// Evaluate computes a weighted sum for each option and picks the highest.
// Confidence is one minus the variance of the chosen option's per-criterion
// scores, clamped to [0,1]. It is a spread measure over the inputs, not a
// calibrated probability. Ties keep the earlier option. Deterministic for
// identical inputs.
func Evaluate(options []Option, weights Weights) (*Result, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("at least one option is required")
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("at least one weight is required")
	}

	criteria := make([]string, 0, len(weights))
	for c := range weights {
		criteria = append(criteria, c)
	}
	sort.Strings(criteria)

	scores := make([]OptionScore, len(options))
	best := 0
	for i, opt := range options {
		var sum float64
		for _, c := range criteria {
			sum += weights[c] * criterionScore(opt, c)
		}
		scores[i] = OptionScore{Index: i, Name: opt.Name, Weighted: sum}
		if scores[i].Weighted > scores[best].Weighted {
			best = i
		}
	}

	return &Result{
		Scores:     scores,
		Chosen:     scores[best],
		Confidence: confidence(options[best], criteria),
	}, nil
}

func criterionScore(opt Option, criterion string) float64 {
	if v, ok := opt.Scores[criterion]; ok {
		return v
	}
	return neutralScore
}

// confidence is 1 - Var(scores) over the weighted criteria.
func confidence(opt Option, criteria []string) float64 {
	if len(criteria) == 0 {
		return 0
	}

	var sum float64
	for _, c := range criteria {
		sum += criterionScore(opt, c)
	}
	mean := sum / float64(len(criteria))

	var variance float64
	for _, c := range criteria {
		d := criterionScore(opt, c) - mean
		variance += d * d
	}
	variance /= float64(len(criteria))

	return clamp01(1 - variance)
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
