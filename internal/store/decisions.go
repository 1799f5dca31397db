package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Decision records one decision point: the options considered, the chosen
// option, and a confidence derived from the scoring weights. Rows are
// immutable once inserted.
type Decision struct {
	ID          string
	Type        string
	Context     string
	OptionsJSON string
	ChosenJSON  string
	Reasoning   string
	Confidence  float64
	CreatedAt   time.Time
}

// InsertDecision appends a decision. Confidence is clamped to [0,1].
func (s *Store) InsertDecision(d Decision) error {
	return insertDecision(s.db, d)
}

// CreateGoalWithDecision inserts a goal and the decision that selected it in
// a single transaction, so an interrupted cycle never leaves one without the
// other.
func (s *Store) CreateGoalWithDecision(g Goal, d Decision) error {
	if g.ID == "" {
		return fmt.Errorf("goal id is required")
	}
	if !ValidGoalStatus(g.Status) {
		return fmt.Errorf("invalid goal status: %q", g.Status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var targetAt sql.NullString
	if g.TargetAt != nil {
		targetAt = sql.NullString{String: g.TargetAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err = tx.Exec(`
		INSERT INTO goals (id, title, description, priority, status, progress, created_at, target_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.Title, g.Description, clamp01(g.Priority), string(g.Status),
		clamp01(g.Progress), g.CreatedAt.UTC().Format(time.RFC3339), targetAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	if err := insertDecision(tx, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertDecision(db execer, d Decision) error {
	if d.ID == "" {
		return fmt.Errorf("decision id is required")
	}
	if d.Type == "" {
		return fmt.Errorf("decision type is required")
	}

	_, err := db.Exec(`
		INSERT INTO decisions (id, type, context, options_json, chosen_json, reasoning, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Type, d.Context, d.OptionsJSON, d.ChosenJSON, d.Reasoning,
		clamp01(d.Confidence), d.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// ListDecisions returns up to limit decisions, newest first.
func (s *Store) ListDecisions(limit int) ([]Decision, error) {
	rows, err := s.db.Query(`
		SELECT id, type, context, options_json, chosen_json, reasoning, confidence, created_at
		FROM decisions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var context, reasoning sql.NullString
		var createdAt string
		err := rows.Scan(&d.ID, &d.Type, &context, &d.OptionsJSON,
			&d.ChosenJSON, &reasoning, &d.Confidence, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if context.Valid {
			d.Context = context.String
		}
		if reasoning.Valid {
			d.Reasoning = reasoning.String
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return decisions, nil
}

// CountDecisions returns the total number of recorded decisions.
func (s *Store) CountDecisions() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM decisions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}

// AvgDecisionConfidence returns the mean confidence across all decisions,
// or 0 when none exist.
func (s *Store) AvgDecisionConfidence() (float64, error) {
	var avg float64
	err := s.db.QueryRow("SELECT COALESCE(AVG(confidence), 0) FROM decisions").Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average decision confidence: %w", err)
	}
	return avg, nil
}
