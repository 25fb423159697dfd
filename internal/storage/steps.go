package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

const stepsColumns = `id, date, count, distance, calories, created_at, updated_at`

// UpsertSteps inserts or replaces the steps row for s.Date in one statement.
func (db *DB) UpsertSteps(ctx context.Context, s models.Steps) error {
	now := db.stamp()
	err := db.conn.exec(ctx,
		`INSERT INTO steps (date, count, distance, calories, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		   count = excluded.count,
		   distance = excluded.distance,
		   calories = excluded.calories,
		   updated_at = excluded.updated_at`,
		s.Date, s.Count, s.Distance, s.Calories, now, now)
	if err != nil {
		return fmt.Errorf("upserting steps: %w", err)
	}
	return nil
}

// GetSteps returns the steps row for date, or ErrNotFound.
func (db *DB) GetSteps(ctx context.Context, date string) (*models.Steps, error) {
	s, err := scanSteps(db.conn.queryRow(ctx,
		`SELECT `+stepsColumns+` FROM steps WHERE date = ?`, date))
	if err != nil {
		return nil, fmt.Errorf("getting steps: %w", err)
	}
	return &s, nil
}

// QuerySteps returns steps rows in the range, newest date first.
func (db *DB) QuerySteps(ctx context.Context, r models.DateRange) ([]models.Steps, error) {
	where, args := rangeWhere(r)
	rows, err := db.conn.query(ctx,
		`SELECT `+stepsColumns+` FROM steps`+where+` ORDER BY date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	result := []models.Steps{}
	for rows.Next() {
		s, err := scanSteps(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning steps: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanSteps(r row) (models.Steps, error) {
	var s models.Steps
	var created, updated string
	if err := r.Scan(&s.ID, &s.Date, &s.Count, &s.Distance, &s.Calories, &created, &updated); err != nil {
		return s, err
	}
	s.CreatedAt, s.UpdatedAt = parseStamp(created), parseStamp(updated)
	return s, nil
}
