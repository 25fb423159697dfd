package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

// AppendWorkout inserts one workout row. Duplicates are not checked.
func (db *DB) AppendWorkout(ctx context.Context, w models.Workout) error {
	now := db.stamp()
	err := db.conn.exec(ctx,
		`INSERT INTO workouts (date, start_time, end_time, duration_minutes, type, calories, distance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Date, w.StartTime, w.EndTime, w.DurationMinutes, w.Type, w.Calories, w.Distance, now, now)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// QueryWorkouts returns workouts in the range, newest first. An empty
// workoutType matches every type.
func (db *DB) QueryWorkouts(ctx context.Context, r models.DateRange, workoutType string) ([]models.Workout, error) {
	where, args := rangeWhere(r)
	if workoutType != "" {
		if where == "" {
			where = " WHERE type = ?"
		} else {
			where += " AND type = ?"
		}
		args = append(args, workoutType)
	}

	rows, err := db.conn.query(ctx,
		`SELECT id, date, start_time, end_time, duration_minutes, type, calories, distance, created_at, updated_at
		 FROM workouts`+where+` ORDER BY date DESC, start_time DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	result := []models.Workout{}
	for rows.Next() {
		var w models.Workout
		var created, updated string
		if err := rows.Scan(&w.ID, &w.Date, &w.StartTime, &w.EndTime, &w.DurationMinutes,
			&w.Type, &w.Calories, &w.Distance, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		w.CreatedAt, w.UpdatedAt = parseStamp(created), parseStamp(updated)
		result = append(result, w)
	}
	return result, rows.Err()
}

// WorkoutsOn returns every workout recorded for date.
func (db *DB) WorkoutsOn(ctx context.Context, date string) ([]models.Workout, error) {
	return db.QueryWorkouts(ctx, models.DateRange{Start: date, End: date}, "")
}
