package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"steward/internal/audit"
	"steward/internal/notify"
	"steward/internal/scoring"
	"steward/internal/store"
	"steward/internal/synth"
)

const (
	// cycleCountKey and lastCycleKey are the KV bookkeeping keys.
	cycleCountKey = "cycle_count"
	lastCycleKey  = "last_cycle_at"

	// advanceBatch bounds how many active goals one cycle touches.
	advanceBatch = 100
)

// Config holds cycle driver configuration.
type Config struct {
	Store      *store.Store
	Audit      *audit.Logger
	Notifier   *notify.Notifier
	Synth      *synth.Synthesizer
	Weights    scoring.Weights
	Interval   time.Duration
	MaxActive  int
	Candidates int
	Now        func() time.Time
}

// Driver runs the autonomous cycle: inspect goals, decide, advance, record
// metrics, sleep. A failed cycle is printed and the loop keeps going; that
// is the whole failure policy.
type Driver struct {
	store      *store.Store
	audit      *audit.Logger
	notifier   *notify.Notifier
	synth      *synth.Synthesizer
	weights    scoring.Weights
	interval   time.Duration
	maxActive  int
	candidates int
	now        func() time.Time
}

// New creates a cycle driver with defaults filled in.
func New(cfg Config) *Driver {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxActive == 0 {
		cfg.MaxActive = 3
	}
	if cfg.Candidates == 0 {
		cfg.Candidates = 3
	}
	if cfg.Synth == nil {
		cfg.Synth = synth.New(0)
	}
	if cfg.Weights == nil {
		cfg.Weights = scoring.DefaultWeights()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Notifier == nil {
		cfg.Notifier = &notify.Notifier{}
	}

	return &Driver{
		store:      cfg.Store,
		audit:      cfg.Audit,
		notifier:   cfg.Notifier,
		synth:      cfg.Synth,
		weights:    cfg.Weights,
		interval:   cfg.Interval,
		maxActive:  cfg.MaxActive,
		candidates: cfg.Candidates,
		now:        cfg.Now,
	}
}

// Result summarizes one cycle.
type Result struct {
	Cycle          int64  `json:"cycle"`
	GoalCreatedID  string `json:"goal_created_id,omitempty"`
	GoalsAdvanced  int    `json:"goals_advanced"`
	GoalsCompleted int    `json:"goals_completed"`
}

// Run starts the cycle loop and blocks until ctx is cancelled or a signal
// arrives. Cancellation waits out the in-flight cycle, never a partial
// write.
func (d *Driver) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	startPayload := map[string]any{
		"interval":   d.interval.String(),
		"max_active": d.maxActive,
	}
	if err := d.audit.LogEvent("cycle", "driver_started", startPayload); err != nil {
		fmt.Fprintf(os.Stderr, "audit log failed: %v\n", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = d.audit.LogEvent("cycle", "driver_stopped", map[string]any{})
			return nil

		case <-ticker.C:
			result, err := d.RunOnce()
			if err != nil {
				fmt.Fprintf(os.Stderr, "cycle failed: %v\n", err)
				_ = d.audit.LogEvent("cycle", "cycle_failed", map[string]any{"error": err.Error()})
				continue
			}
			_ = d.audit.LogEvent("cycle", "cycle_completed", result)
		}
	}
}

// RunOnce executes a single cycle: CHECK_GOALS, maybe CREATE_GOAL,
// WORK_ON_GOALS, RECORD_METRICS.
func (d *Driver) RunOnce() (*Result, error) {
	counts, err := d.store.CountGoalsByStatus()
	if err != nil {
		return nil, fmt.Errorf("check goals: %w", err)
	}

	result := &Result{}

	if counts[store.GoalActive] < d.maxActive {
		goalID, err := d.createGoal(counts[store.GoalActive])
		if err != nil {
			return nil, fmt.Errorf("create goal: %w", err)
		}
		result.GoalCreatedID = goalID
	}

	advanced, completed, err := d.advanceGoals()
	if err != nil {
		return nil, fmt.Errorf("advance goals: %w", err)
	}
	result.GoalsAdvanced = advanced
	result.GoalsCompleted = completed

	cycle, err := d.bumpCycleCount()
	if err != nil {
		return nil, fmt.Errorf("update cycle count: %w", err)
	}
	result.Cycle = cycle

	if err := d.recordMetrics(); err != nil {
		return nil, fmt.Errorf("record metrics: %w", err)
	}

	return result, nil
}

// createGoal synthesizes candidate goals, scores them, and inserts the
// chosen goal together with its selection decision in one transaction.
func (d *Driver) createGoal(activeCount int) (string, error) {
	candidates := d.synth.CandidateGoals(d.candidates)
	options := make([]scoring.Option, len(candidates))
	for i, c := range candidates {
		options[i] = c.Option
	}

	evaluated, err := scoring.Evaluate(options, d.weights)
	if err != nil {
		return "", err
	}
	chosen := candidates[evaluated.Chosen.Index]

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	chosenJSON, err := json.Marshal(chosen.Option)
	if err != nil {
		return "", fmt.Errorf("marshal chosen option: %w", err)
	}

	now := d.now()
	goal := store.Goal{
		ID:          uuid.NewString(),
		Title:       chosen.Title,
		Description: chosen.Description,
		Priority:    chosen.Priority,
		Status:      store.GoalActive,
		Progress:    0,
		CreatedAt:   now,
	}
	decision := store.Decision{
		ID:          uuid.NewString(),
		Type:        "goal_selection",
		Context:     fmt.Sprintf("active=%d max_active=%d", activeCount, d.maxActive),
		OptionsJSON: string(optionsJSON),
		ChosenJSON:  string(chosenJSON),
		Reasoning:   synth.Reasoning("goal_selection", evaluated.Chosen, evaluated.Confidence),
		Confidence:  evaluated.Confidence,
		CreatedAt:   now,
	}

	if err := d.store.CreateGoalWithDecision(goal, decision); err != nil {
		return "", err
	}

	title, message := notify.FormatGoalCreated(goal.Title, decision.Confidence)
	if err := d.notifier.Send(title, message); err != nil {
		fmt.Fprintf(os.Stderr, "notification failed: %v\n", err)
	}

	return goal.ID, nil
}

// advanceGoals applies a progress increment to each active goal and
// completes goals that reach 1.0.
func (d *Driver) advanceGoals() (advanced, completed int, err error) {
	actives, err := d.store.ListGoals(store.GoalActive, advanceBatch)
	if err != nil {
		return 0, 0, err
	}

	for _, goal := range actives {
		progress := goal.Progress + d.synth.ProgressIncrement(goal.Priority)
		if progress >= 1 {
			if err := d.store.UpdateGoalProgress(goal.ID, 1); err != nil {
				return advanced, completed, err
			}
			if err := d.store.TransitionGoal(goal.ID, store.GoalCompleted); err != nil {
				return advanced, completed, err
			}
			completed++

			cycle, _ := d.cycleCount()
			title, message := notify.FormatGoalCompleted(goal.Title, cycle)
			if err := d.notifier.Send(title, message); err != nil {
				fmt.Fprintf(os.Stderr, "notification failed: %v\n", err)
			}
		} else {
			if err := d.store.UpdateGoalProgress(goal.ID, progress); err != nil {
				return advanced, completed, err
			}
		}
		advanced++
	}
	return advanced, completed, nil
}

// recordMetrics appends the per-cycle performance samples: one synthetic
// effectiveness draw and two counter ratios.
func (d *Driver) recordMetrics() error {
	now := d.now()

	if err := d.store.RecordMetric("cycle_effectiveness", d.synth.Draw(0.5, 0.95), "cycle", now); err != nil {
		return err
	}

	counts, err := d.store.CountGoalsByStatus()
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	rate := 0.0
	if total > 0 {
		rate = float64(counts[store.GoalCompleted]) / float64(total)
	}
	if err := d.store.RecordMetric("goal_completion_rate", rate, "cycle", now); err != nil {
		return err
	}

	avgConfidence, err := d.store.AvgDecisionConfidence()
	if err != nil {
		return err
	}
	return d.store.RecordMetric("avg_decision_confidence", avgConfidence, "cycle", now)
}

func (d *Driver) cycleCount() (int64, error) {
	raw, err := d.store.GetKV(cycleCountKey)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cycle count: %w", err)
	}
	return count, nil
}

func (d *Driver) bumpCycleCount() (int64, error) {
	count, err := d.cycleCount()
	if err != nil {
		return 0, err
	}
	count++
	if err := d.store.SetKV(cycleCountKey, strconv.FormatInt(count, 10)); err != nil {
		return 0, err
	}
	if err := d.store.SetKV(lastCycleKey, d.now().UTC().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	return count, nil
}

// RecordDecision evaluates options with the given weights and appends the
// resulting decision. Used by the one-shot decide path.
func RecordDecision(st *store.Store, options []scoring.Option, weights scoring.Weights, decisionType, context string, now time.Time) (*store.Decision, error) {
	if weights == nil {
		weights = scoring.DefaultWeights()
	}
	evaluated, err := scoring.Evaluate(options, weights)
	if err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	chosenJSON, err := json.Marshal(options[evaluated.Chosen.Index])
	if err != nil {
		return nil, fmt.Errorf("marshal chosen option: %w", err)
	}

	decision := store.Decision{
		ID:          uuid.NewString(),
		Type:        decisionType,
		Context:     context,
		OptionsJSON: string(optionsJSON),
		ChosenJSON:  string(chosenJSON),
		Reasoning:   synth.Reasoning(decisionType, evaluated.Chosen, evaluated.Confidence),
		Confidence:  evaluated.Confidence,
		CreatedAt:   now,
	}
	if err := st.InsertDecision(decision); err != nil {
		return nil, err
	}
	return &decision, nil
}
