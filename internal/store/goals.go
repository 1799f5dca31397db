package store

import (
	"database/sql"
	"fmt"
	"time"
)

// GoalStatus enumerates the lifecycle states of a goal.
type GoalStatus string

const (
	GoalPending   GoalStatus = "pending"
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
	GoalPaused    GoalStatus = "paused"
)

// ValidGoalStatus reports whether s is one of the defined goal states.
func ValidGoalStatus(s GoalStatus) bool {
	switch s {
	case GoalPending, GoalActive, GoalCompleted, GoalFailed, GoalPaused:
		return true
	}
	return false
}

// allowedTransitions maps each state to the states it may move to.
// Goals are never deleted; completed and failed are terminal.
var allowedTransitions = map[GoalStatus][]GoalStatus{
	GoalPending: {GoalActive, GoalFailed},
	GoalActive:  {GoalCompleted, GoalFailed, GoalPaused},
	GoalPaused:  {GoalActive, GoalFailed},
}

// Goal is a unit of work the cycle driver creates and advances.
type Goal struct {
	ID          string
	Title       string
	Description string
	Priority    float64
	Status      GoalStatus
	Progress    float64
	CreatedAt   time.Time
	TargetAt    *time.Time
}

// CreateGoal inserts a new goal. Priority and progress are clamped to [0,1];
// an unknown status is rejected.
func (s *Store) CreateGoal(g Goal) error {
	if g.ID == "" {
		return fmt.Errorf("goal id is required")
	}
	if g.Title == "" {
		return fmt.Errorf("goal title is required")
	}
	if !ValidGoalStatus(g.Status) {
		return fmt.Errorf("invalid goal status: %q", g.Status)
	}

	var targetAt sql.NullString
	if g.TargetAt != nil {
		targetAt = sql.NullString{String: g.TargetAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO goals (id, title, description, priority, status, progress, created_at, target_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.Title, g.Description, clamp01(g.Priority), string(g.Status),
		clamp01(g.Progress), g.CreatedAt.UTC().Format(time.RFC3339), targetAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID.
func (s *Store) GetGoal(id string) (*Goal, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, priority, status, progress, created_at, target_at
		FROM goals
		WHERE id = ?
	`, id)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

// ListGoals returns up to limit goals, newest first. An empty status matches
// all states.
func (s *Store) ListGoals(status GoalStatus, limit int) ([]Goal, error) {
	query := `
		SELECT id, title, description, priority, status, progress, created_at, target_at
		FROM goals
	`
	args := []any{}
	if status != "" {
		if !ValidGoalStatus(status) {
			return nil, fmt.Errorf("invalid goal status: %q", status)
		}
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// CountGoalsByStatus returns the number of goals per state.
func (s *Store) CountGoalsByStatus() (map[GoalStatus]int, error) {
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM goals GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count goals: %w", err)
	}
	defer rows.Close()

	counts := make(map[GoalStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan goal count: %w", err)
		}
		counts[GoalStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal counts: %w", err)
	}
	return counts, nil
}

// UpdateGoalProgress sets a goal's progress, clamped to [0,1].
func (s *Store) UpdateGoalProgress(id string, progress float64) error {
	res, err := s.db.Exec("UPDATE goals SET progress = ? WHERE id = ?", clamp01(progress), id)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("goal not found: %s", id)
	}
	return nil
}

// TransitionGoal moves a goal to a new state, enforcing the transition table.
func (s *Store) TransitionGoal(id string, to GoalStatus) error {
	if !ValidGoalStatus(to) {
		return fmt.Errorf("invalid goal status: %q", to)
	}

	goal, err := s.GetGoal(id)
	if err != nil {
		return err
	}
	if !transitionAllowed(goal.Status, to) {
		return fmt.Errorf("goal %s: transition %s -> %s not allowed", id, goal.Status, to)
	}

	_, err = s.db.Exec("UPDATE goals SET status = ? WHERE id = ?", string(to), id)
	if err != nil {
		return fmt.Errorf("transition goal: %w", err)
	}
	return nil
}

// AvgGoalProgress returns the mean progress over goals in the given state,
// or over all goals when status is empty. Returns 0 when no goals match.
func (s *Store) AvgGoalProgress(status GoalStatus) (float64, error) {
	query := "SELECT COALESCE(AVG(progress), 0) FROM goals"
	args := []any{}
	if status != "" {
		if !ValidGoalStatus(status) {
			return 0, fmt.Errorf("invalid goal status: %q", status)
		}
		query += " WHERE status = ?"
		args = append(args, string(status))
	}

	var avg float64
	if err := s.db.QueryRow(query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average goal progress: %w", err)
	}
	return avg, nil
}

func transitionAllowed(from, to GoalStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*Goal, error) {
	var goal Goal
	var status string
	var description sql.NullString
	var createdAt string
	var targetAt sql.NullString

	err := row.Scan(&goal.ID, &goal.Title, &description, &goal.Priority,
		&status, &goal.Progress, &createdAt, &targetAt)
	if err != nil {
		return nil, err
	}

	goal.Status = GoalStatus(status)
	if description.Valid {
		goal.Description = description.String
	}
	goal.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if targetAt.Valid {
		t, _ := time.Parse(time.RFC3339, targetAt.String)
		goal.TargetAt = &t
	}
	return &goal, nil
}
