package healthdata

import (
	"errors"
	"fmt"
	"time"
)

// State is the client's view of the latest fetch. Values are never modified
// in place; Reduce returns a new State for every event.
type State struct {
	Date        string
	Generation  uint64
	Loading     bool
	Permission  PermissionState
	Snapshot    *Snapshot
	Err         string
	LastSuccess time.Time
	LastFailure time.Time
}

// Event is a state transition applied by Reduce.
type Event interface {
	apply(State) State
}

// FetchStarted begins a fetch for Date and supersedes any fetch in flight.
type FetchStarted struct {
	Date string
}

// FetchSucceeded delivers a snapshot for the fetch numbered Generation.
type FetchSucceeded struct {
	Generation uint64
	Snapshot   *Snapshot
}

// FetchFailed reports a fetch that produced no snapshot.
type FetchFailed struct {
	Generation uint64
	Err        error
	At         time.Time
}

// PermissionChanged records the outcome of a permission prompt.
type PermissionChanged struct {
	State PermissionState
}

// PermissionRevoked drops the snapshot after access is withdrawn.
type PermissionRevoked struct{}

// Reduce applies e to s.
func Reduce(s State, e Event) State {
	return e.apply(s)
}

func (e FetchStarted) apply(s State) State {
	s.Date = e.Date
	s.Generation++
	s.Loading = true
	return s
}

func (e FetchSucceeded) apply(s State) State {
	if e.Generation != s.Generation || e.Snapshot == nil {
		return s
	}
	s.Loading = false
	s.Snapshot = e.Snapshot
	s.LastSuccess = e.Snapshot.CapturedAt
	s.Err = ""
	if msg := fieldErrorMessage(e.Snapshot); msg != "" {
		s.Err = msg
		s.LastFailure = e.Snapshot.CapturedAt
	}
	switch {
	case allDenied(e.Snapshot):
		s.Permission = PermissionDenied
	case s.Permission == PermissionUnknown && len(e.Snapshot.Errors) < len(fieldOrder):
		// A successful read is the only confirmation of an earlier grant.
		s.Permission = PermissionGranted
	}
	return s
}

func (e FetchFailed) apply(s State) State {
	if e.Generation != s.Generation {
		return s
	}
	s.Loading = false
	s.Snapshot = nil
	s.LastFailure = e.At
	s.Err = "failed to fetch health data"
	if e.Err != nil {
		s.Err = e.Err.Error()
	}
	return s
}

func (e PermissionChanged) apply(s State) State {
	s.Permission = e.State
	return s
}

func (PermissionRevoked) apply(s State) State {
	s.Permission = PermissionDenied
	s.Snapshot = nil
	s.Loading = false
	s.Err = ErrPermissionDenied.Error()
	return s
}

var fieldOrder = [...]Field{FieldSteps, FieldCalories, FieldHeartRate, FieldSleep}

// fieldErrorMessage returns one message for the snapshot; the last failed
// field in fetch order wins.
func fieldErrorMessage(snap *Snapshot) string {
	msg := ""
	for _, f := range fieldOrder {
		if err, ok := snap.Errors[f]; ok {
			msg = fmt.Sprintf("failed to load %s: %v", f, err)
		}
	}
	return msg
}

// allDenied reports whether every field failed with ErrPermissionDenied,
// which is the only way a denial becomes visible after the prompt.
func allDenied(snap *Snapshot) bool {
	for _, f := range fieldOrder {
		if !errors.Is(snap.Errors[f], ErrPermissionDenied) {
			return false
		}
	}
	return true
}
