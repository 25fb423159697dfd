// Package healthdata turns raw samples from a platform health store into
// per-day snapshots and tracks fetch and permission state on the client.
package healthdata

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCapabilityUnavailable means the health store is not present on this
	// platform or build. It aborts the whole fetch.
	ErrCapabilityUnavailable = errors.New("health data is not available on this device")

	// ErrPermissionDenied is returned by providers when a read is refused.
	ErrPermissionDenied = errors.New("health data permission denied")
)

// RawSample is one provider measurement over [Start, End].
type RawSample struct {
	Value float64   `json:"value"`
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

// WorkoutSample is one workout as reported by the provider. Every field is optional.
type WorkoutSample struct {
	ID             string     `json:"id,omitempty"`
	ActivityName   string     `json:"activityName,omitempty"`
	Start          *time.Time `json:"startTime,omitempty"`
	End            *time.Time `json:"endTime,omitempty"`
	Calories       *float64   `json:"calories,omitempty"`
	DistanceMeters *float64   `json:"distanceMeters,omitempty"`
}

// Quantity is a cumulative reading: either an aggregate Total computed by
// the provider or individual Samples to be summed.
type Quantity struct {
	Total   *float64
	Samples []RawSample
}

// Sum returns Total when set, otherwise the sum of Samples.
func (q Quantity) Sum() float64 {
	if q.Total != nil {
		return *q.Total
	}
	var sum float64
	for _, s := range q.Samples {
		sum += s.Value
	}
	return sum
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DayWindow spans day from 00:00:00.000 to 23:59:59.999 in day's location.
func DayWindow(day time.Time) Window {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return Window{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Millisecond)}
}

// PermissionState records what is known about read access. The platform does
// not reveal a denial after the prompt, so Unknown is a real state.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Provider is the platform health store.
type Provider interface {
	// Available returns ErrCapabilityUnavailable when the store cannot be used.
	Available(ctx context.Context) error
	// RequestPermissions shows the grant prompt when needed and returns what
	// the platform reports afterwards.
	RequestPermissions(ctx context.Context) (PermissionState, error)
	Steps(ctx context.Context, w Window) (Quantity, error)
	ActiveEnergy(ctx context.Context, w Window) (Quantity, error)
	HeartRate(ctx context.Context, w Window) ([]RawSample, error)
	Sleep(ctx context.Context, w Window) ([]RawSample, error)
}

// WorkoutSource is implemented by providers that can query workouts.
type WorkoutSource interface {
	Workouts(ctx context.Context, w Window) ([]WorkoutSample, error)
}
