package syncgate

import (
	"context"
	"math"
	"time"

	"github.com/claude/healthsync/internal/healthdata"
	"github.com/claude/healthsync/internal/models"
)

// defaultWorkoutType is used when the provider did not name the activity.
const defaultWorkoutType = "Workout"

// call is one pending remote write. A record that fails validation carries
// its error and never reaches the remote.
type call struct {
	kind  models.Kind
	index int
	send  func(ctx context.Context, r Remote) error
}

func rejected(kind models.Kind, index int, err error) call {
	return call{kind: kind, index: index, send: func(context.Context, Remote) error { return err }}
}

// batch builds the calls for snap in send order: steps, heart rate, sleep,
// calories, workouts.
func (g *Gate) batch(snap *healthdata.Snapshot, date string) []call {
	var calls []call

	if !snap.Failed(healthdata.FieldSteps) {
		count := snap.Steps
		s, err := models.StepsInput{Date: date, Count: &count}.Validate()
		if err != nil {
			calls = append(calls, rejected(models.KindSteps, 0, err))
		} else {
			calls = append(calls, call{kind: models.KindSteps, send: func(ctx context.Context, r Remote) error {
				return r.UpsertSteps(ctx, s)
			}})
		}
	}

	for i, sample := range latest(snap.HeartRate, MaxHeartRateSamples) {
		bpm := int64(math.Round(sample.Value))
		h, err := models.HeartRateInput{
			Date:      date,
			Timestamp: sample.Start.Format(time.RFC3339),
			BPM:       &bpm,
		}.Validate()
		if err != nil {
			calls = append(calls, rejected(models.KindHeartRate, i, err))
			continue
		}
		calls = append(calls, call{kind: models.KindHeartRate, index: i, send: func(ctx context.Context, r Remote) error {
			return r.AppendHeartRate(ctx, h)
		}})
	}

	if start, end, ok := healthdata.SleepBounds(snap.Sleep); ok {
		minutes := int64(math.Round(healthdata.SleepMinutes(snap.Sleep, g.sleep)))
		s, err := models.SleepInput{
			Date:            date,
			StartTime:       start.Format(time.RFC3339),
			EndTime:         end.Format(time.RFC3339),
			DurationMinutes: &minutes,
		}.Validate()
		if err != nil {
			calls = append(calls, rejected(models.KindSleep, 0, err))
		} else {
			calls = append(calls, call{kind: models.KindSleep, send: func(ctx context.Context, r Remote) error {
				return r.UpsertSleep(ctx, s)
			}})
		}
	}

	if !snap.Failed(healthdata.FieldCalories) {
		// Only active energy is read on the device. Resting is reported as zero.
		active, resting := snap.Calories, 0.0
		total := active + resting
		c, err := models.CaloriesInput{
			Date:            date,
			ActiveCalories:  &active,
			RestingCalories: &resting,
			TotalCalories:   &total,
		}.Validate()
		if err != nil {
			calls = append(calls, rejected(models.KindCalories, 0, err))
		} else {
			calls = append(calls, call{kind: models.KindCalories, send: func(ctx context.Context, r Remote) error {
				return r.UpsertCalories(ctx, c)
			}})
		}
	}

	for i, ws := range snap.Workouts {
		w, err := workoutInput(ws, date).Validate()
		if err != nil {
			calls = append(calls, rejected(models.KindWorkouts, i, err))
			continue
		}
		calls = append(calls, call{kind: models.KindWorkouts, index: i, send: func(ctx context.Context, r Remote) error {
			return r.AppendWorkout(ctx, w)
		}})
	}

	return calls
}

// latest returns the last n samples, keeping provider order.
func latest(samples []healthdata.RawSample, n int) []healthdata.RawSample {
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

func workoutInput(ws healthdata.WorkoutSample, date string) models.WorkoutInput {
	in := models.WorkoutInput{
		Date:     date,
		Type:     ws.ActivityName,
		Calories: ws.Calories,
		Distance: ws.DistanceMeters,
	}
	if in.Type == "" {
		in.Type = defaultWorkoutType
	}
	if ws.Start != nil && ws.End != nil {
		in.StartTime = ws.Start.Format(time.RFC3339)
		in.EndTime = ws.End.Format(time.RFC3339)
		minutes := int64(math.Round(ws.End.Sub(*ws.Start).Minutes()))
		in.DurationMinutes = &minutes
	}
	return in
}
