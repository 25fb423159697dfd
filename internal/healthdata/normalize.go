package healthdata

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/claude/healthsync/internal/models"
	"golang.org/x/sync/errgroup"
)

// Field names a snapshot value fetched independently from the provider.
type Field string

const (
	FieldSteps     Field = "steps"
	FieldCalories  Field = "calories"
	FieldHeartRate Field = "heart_rate"
	FieldSleep     Field = "sleep"
)

// Snapshot is one normalized fetch for a single day. It is replaced
// wholesale on the next fetch and never modified.
type Snapshot struct {
	Date       string
	Steps      int64
	Calories   float64
	HeartRate  []RawSample
	Sleep      []RawSample
	Workouts   []WorkoutSample
	CapturedAt time.Time
	// Errors holds the fields whose fetch failed. Failed fields carry their
	// zero value. Workouts never appear here.
	Errors map[Field]error
}

// Failed reports whether the field's fetch failed.
func (s *Snapshot) Failed(f Field) bool {
	_, ok := s.Errors[f]
	return ok
}

// Normalizer fetches every metric of a window and builds a Snapshot.
type Normalizer struct {
	log *slog.Logger
	now func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log, now: time.Now}
}

// Fetch checks capability and then issues the five provider reads
// concurrently. Per-field failures are recorded on the snapshot; only an
// unavailable provider returns an error.
func (n *Normalizer) Fetch(ctx context.Context, p Provider, w Window) (*Snapshot, error) {
	if err := p.Available(ctx); err != nil {
		return nil, fmt.Errorf("checking availability: %w", err)
	}

	var (
		steps, energy    Quantity
		heartRate, sleep []RawSample
		workouts         []WorkoutSample
		errs             [4]error
	)

	var g errgroup.Group
	g.Go(func() error {
		steps, errs[0] = p.Steps(ctx, w)
		return nil
	})
	g.Go(func() error {
		energy, errs[1] = p.ActiveEnergy(ctx, w)
		return nil
	})
	g.Go(func() error {
		heartRate, errs[2] = p.HeartRate(ctx, w)
		return nil
	})
	g.Go(func() error {
		sleep, errs[3] = p.Sleep(ctx, w)
		return nil
	})
	g.Go(func() error {
		ws, ok := p.(WorkoutSource)
		if !ok {
			return nil
		}
		got, err := ws.Workouts(ctx, w)
		if err != nil {
			n.log.Warn("workout fetch failed, continuing without workouts", "error", err)
			return nil
		}
		workouts = got
		return nil
	})
	_ = g.Wait()

	snap := &Snapshot{
		Date:       w.Start.Format(models.DateLayout),
		HeartRate:  []RawSample{},
		Sleep:      []RawSample{},
		Workouts:   []WorkoutSample{},
		CapturedAt: n.now(),
		Errors:     map[Field]error{},
	}
	fields := [4]Field{FieldSteps, FieldCalories, FieldHeartRate, FieldSleep}
	for i, err := range errs {
		if err != nil {
			snap.Errors[fields[i]] = err
			n.log.Warn("metric fetch failed", "field", fields[i], "error", err)
		}
	}

	if errs[0] == nil {
		snap.Steps = nonNegative(math.Round(steps.Sum()))
	}
	if errs[1] == nil {
		snap.Calories = math.Max(energy.Sum(), 0)
	}
	if errs[2] == nil && heartRate != nil {
		snap.HeartRate = heartRate
	}
	if errs[3] == nil && sleep != nil {
		snap.Sleep = sleep
		for i, smp := range sleep {
			if smp.End.Before(smp.Start) {
				n.log.Warn("inverted sleep interval ignored in totals",
					"index", i, "start", smp.Start, "end", smp.End)
			}
		}
	}
	if workouts != nil {
		snap.Workouts = workouts
	}
	return snap, nil
}

func nonNegative(v float64) int64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return int64(v)
}
