package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"steward/internal/store"
)

// Status is a point-in-time snapshot of the store. Building it is a pure
// read path; nothing here writes state.
type Status struct {
	SchemaVersion  int                `json:"schema_version"`
	AsOf           string             `json:"as_of"`
	Cycles         int64              `json:"cycles"`
	LastCycleAt    string             `json:"last_cycle_at,omitempty"`
	GoalCounts     map[string]int     `json:"goal_counts"`
	GoalsTotal     int                `json:"goals_total"`
	ActiveProgress float64            `json:"active_progress_avg"`
	Decisions      int                `json:"decisions"`
	AvgConfidence  float64            `json:"avg_confidence"`
	MetricAverages map[string]float64 `json:"metric_averages"`
	RecentGoals    []GoalLine         `json:"recent_goals,omitempty"`
}

// GoalLine is the per-goal slice of the snapshot.
type GoalLine struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Priority float64 `json:"priority"`
	Progress float64 `json:"progress"`
}

const StatusSchemaVersion = 1

// Build reads aggregates from the store and assembles a Status.
func Build(st *store.Store, now time.Time) (*Status, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}

	counts, err := st.CountGoalsByStatus()
	if err != nil {
		return nil, fmt.Errorf("count goals: %w", err)
	}
	goalCounts := make(map[string]int, len(counts))
	total := 0
	for status, n := range counts {
		goalCounts[string(status)] = n
		total += n
	}

	activeProgress, err := st.AvgGoalProgress(store.GoalActive)
	if err != nil {
		return nil, fmt.Errorf("average progress: %w", err)
	}

	decisions, err := st.CountDecisions()
	if err != nil {
		return nil, fmt.Errorf("count decisions: %w", err)
	}
	avgConfidence, err := st.AvgDecisionConfidence()
	if err != nil {
		return nil, fmt.Errorf("average confidence: %w", err)
	}

	averages, err := st.MetricAverages()
	if err != nil {
		return nil, fmt.Errorf("average metrics: %w", err)
	}

	recent, err := st.ListGoals("", 10)
	if err != nil {
		return nil, fmt.Errorf("list recent goals: %w", err)
	}
	lines := make([]GoalLine, 0, len(recent))
	for _, g := range recent {
		lines = append(lines, GoalLine{
			ID:       g.ID,
			Title:    g.Title,
			Status:   string(g.Status),
			Priority: g.Priority,
			Progress: g.Progress,
		})
	}

	cycles := int64(0)
	if raw, err := st.GetKV("cycle_count"); err == nil && raw != "" {
		fmt.Sscanf(raw, "%d", &cycles)
	}
	lastCycle, _ := st.GetKV("last_cycle_at")

	return &Status{
		SchemaVersion:  StatusSchemaVersion,
		AsOf:           now.UTC().Format(time.RFC3339),
		Cycles:         cycles,
		LastCycleAt:    lastCycle,
		GoalCounts:     goalCounts,
		GoalsTotal:     total,
		ActiveProgress: activeProgress,
		Decisions:      decisions,
		AvgConfidence:  avgConfidence,
		MetricAverages: averages,
		RecentGoals:    lines,
	}, nil
}

// Render writes a human-readable status summary.
func (s *Status) Render(w io.Writer) {
	fmt.Fprintf(w, "Status as of %s\n", s.AsOf)
	fmt.Fprintf(w, "Cycles run: %d", s.Cycles)
	if s.LastCycleAt != "" {
		fmt.Fprintf(w, " (last at %s)", s.LastCycleAt)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Goals: %d total\n", s.GoalsTotal)
	statuses := make([]string, 0, len(s.GoalCounts))
	for status := range s.GoalCounts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  %-10s %d\n", status, s.GoalCounts[status])
	}
	fmt.Fprintf(w, "Active progress avg: %.2f\n", s.ActiveProgress)
	fmt.Fprintf(w, "Decisions: %d (avg confidence %.2f)\n", s.Decisions, s.AvgConfidence)

	if len(s.MetricAverages) > 0 {
		fmt.Fprintln(w, "Metric averages:")
		names := make([]string, 0, len(s.MetricAverages))
		for name := range s.MetricAverages {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %.3f\n", name, s.MetricAverages[name])
		}
	}

	if len(s.RecentGoals) > 0 {
		fmt.Fprintln(w, "Recent goals:")
		for _, g := range s.RecentGoals {
			fmt.Fprintf(w, "  [%s] %s (priority %.2f, progress %.2f)\n",
				g.Status, g.Title, g.Priority, g.Progress)
		}
	}
}
