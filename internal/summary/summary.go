// Package summary assembles the per-day composite view across every record kind.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Source is the read side of the store the aggregator needs.
type Source interface {
	GetSteps(ctx context.Context, date string) (*models.Steps, error)
	GetCalories(ctx context.Context, date string) (*models.Calories, error)
	GetSleep(ctx context.Context, date string) (*models.Sleep, error)
	WorkoutsOn(ctx context.Context, date string) ([]models.Workout, error)
	HeartRateStats(ctx context.Context, date string) (*models.HeartRateStats, error)
}

var _ Source = (*storage.DB)(nil)

// Error is returned when every lookup for a date failed.
type Error struct {
	Date string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("summary for %s: all lookups failed: %v", e.Date, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Aggregator builds DailySummary values from a Source.
type Aggregator struct {
	src Source
	log *slog.Logger
}

// New creates an Aggregator.
func New(src Source, log *slog.Logger) *Aggregator {
	return &Aggregator{src: src, log: log}
}

// Summarize runs the five lookups for date concurrently. Missing rows become
// nil fields. A failed lookup leaves its field nil and is listed in
// Incomplete; only when all five fail is an error returned.
func (a *Aggregator) Summarize(ctx context.Context, date string) (*models.DailySummary, error) {
	s := &models.DailySummary{Date: date, Workouts: []models.Workout{}}

	kinds := [5]models.Kind{models.KindSteps, models.KindCalories, models.KindSleep, models.KindWorkouts, models.KindHeartRate}
	var errs [5]error

	// Each goroutine reports through errs so one failure never cancels the rest.
	var g errgroup.Group
	g.Go(func() error {
		steps, err := a.src.GetSteps(ctx, date)
		s.Steps, errs[0] = absentOK(steps, err)
		return nil
	})
	g.Go(func() error {
		calories, err := a.src.GetCalories(ctx, date)
		s.Calories, errs[1] = absentOK(calories, err)
		return nil
	})
	g.Go(func() error {
		sleep, err := a.src.GetSleep(ctx, date)
		s.Sleep, errs[2] = absentOK(sleep, err)
		return nil
	})
	g.Go(func() error {
		workouts, err := a.src.WorkoutsOn(ctx, date)
		if err == nil && workouts != nil {
			s.Workouts = workouts
		}
		errs[3] = err
		return nil
	})
	g.Go(func() error {
		s.HeartRate, errs[4] = a.src.HeartRateStats(ctx, date)
		return nil
	})
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, fmt.Errorf("%s: %w", kinds[i], err))
		s.Incomplete = append(s.Incomplete, kinds[i])
	}
	if len(failed) == len(kinds) {
		return nil, &Error{Date: date, Err: errors.Join(failed...)}
	}
	if len(failed) > 0 {
		a.log.Warn("partial daily summary", "date", date, "error", errors.Join(failed...))
	}
	return s, nil
}

// absentOK maps storage.ErrNotFound to a nil record without error.
func absentOK[T any](v *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
