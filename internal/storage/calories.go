package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

const caloriesColumns = `id, date, active_calories, resting_calories, total_calories, created_at, updated_at`

// UpsertCalories inserts or replaces the calories row for c.Date.
func (db *DB) UpsertCalories(ctx context.Context, c models.Calories) error {
	now := db.stamp()
	err := db.conn.exec(ctx,
		`INSERT INTO calories (date, active_calories, resting_calories, total_calories, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		   active_calories = excluded.active_calories,
		   resting_calories = excluded.resting_calories,
		   total_calories = excluded.total_calories,
		   updated_at = excluded.updated_at`,
		c.Date, c.ActiveCalories, c.RestingCalories, c.TotalCalories, now, now)
	if err != nil {
		return fmt.Errorf("upserting calories: %w", err)
	}
	return nil
}

// GetCalories returns the calories row for date, or ErrNotFound.
func (db *DB) GetCalories(ctx context.Context, date string) (*models.Calories, error) {
	c, err := scanCalories(db.conn.queryRow(ctx,
		`SELECT `+caloriesColumns+` FROM calories WHERE date = ?`, date))
	if err != nil {
		return nil, fmt.Errorf("getting calories: %w", err)
	}
	return &c, nil
}

// QueryCalories returns calories rows in the range, newest date first.
func (db *DB) QueryCalories(ctx context.Context, r models.DateRange) ([]models.Calories, error) {
	where, args := rangeWhere(r)
	rows, err := db.conn.query(ctx,
		`SELECT `+caloriesColumns+` FROM calories`+where+` ORDER BY date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calories: %w", err)
	}
	defer rows.Close()

	result := []models.Calories{}
	for rows.Next() {
		c, err := scanCalories(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calories: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCalories(r row) (models.Calories, error) {
	var c models.Calories
	var created, updated string
	err := r.Scan(&c.ID, &c.Date, &c.ActiveCalories, &c.RestingCalories, &c.TotalCalories, &created, &updated)
	if err != nil {
		return c, err
	}
	c.CreatedAt, c.UpdatedAt = parseStamp(created), parseStamp(updated)
	return c, nil
}
