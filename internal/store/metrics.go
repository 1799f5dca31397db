package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Metric is one appended performance sample.
type Metric struct {
	Name      string
	Value     float64
	Context   string
	CreatedAt time.Time
}

// RecordMetric appends a metric sample. The log is append-only; rows are
// never updated or deleted.
func (s *Store) RecordMetric(name string, value float64, context string, at time.Time) error {
	if name == "" {
		return fmt.Errorf("metric name is required")
	}
	_, err := s.db.Exec(`
		INSERT INTO metrics (name, value, context, created_at)
		VALUES (?, ?, ?, ?)
	`, name, value, context, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// ListMetrics returns up to limit samples, newest first. An empty name
// matches all metrics.
func (s *Store) ListMetrics(name string, limit int) ([]Metric, error) {
	query := "SELECT name, value, context, created_at FROM metrics"
	args := []any{}
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		var context sql.NullString
		var createdAt string
		if err := rows.Scan(&m.Name, &m.Value, &context, &createdAt); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		if context.Valid {
			m.Context = context.String
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return metrics, nil
}

// MetricAverages returns the mean value per metric name.
func (s *Store) MetricAverages() (map[string]float64, error) {
	rows, err := s.db.Query("SELECT name, AVG(value) FROM metrics GROUP BY name")
	if err != nil {
		return nil, fmt.Errorf("average metrics: %w", err)
	}
	defer rows.Close()

	averages := make(map[string]float64)
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, fmt.Errorf("scan metric average: %w", err)
		}
		averages[name] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric averages: %w", err)
	}
	return averages, nil
}
