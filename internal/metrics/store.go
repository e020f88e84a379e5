package metrics

import (
	"context"
	"database/sql"
	"fmt"
)

const incrementQuery = `
	INSERT INTO metrics (key, value) VALUES (?, 1)
	ON CONFLICT(key) DO UPDATE SET value = value + 1`

// store keeps running totals in the metrics table.
type store struct {
	db *sql.DB
}

// New creates a MetricsStore backed by db.
func New(db *sql.DB) MetricsStore {
	return &store{db: db}
}

// Increment adds one to the total of key, creating it on first use.
func (s *store) Increment(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, incrementQuery, key); err != nil {
		return fmt.Errorf("failed to increment metric %s: %w", key, err)
	}
	return nil
}

// GetAll returns every persisted total.
func (s *store) GetAll(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metrics`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			value int
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		totals[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	return totals, nil
}
