package healthdata

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestReduceIgnoresStaleFetch verifies a result from a superseded fetch
// does not overwrite the newer snapshot.
func TestReduceIgnoresStaleFetch(t *testing.T) {
	s := Reduce(State{}, FetchStarted{Date: "2024-01-01"})
	oldGen := s.Generation
	s = Reduce(s, FetchStarted{Date: "2024-01-02"})

	newer := &Snapshot{Date: "2024-01-02", Steps: 2, CapturedAt: time.Unix(2, 0)}
	s = Reduce(s, FetchSucceeded{Generation: s.Generation, Snapshot: newer})

	stale := &Snapshot{Date: "2024-01-01", Steps: 1, CapturedAt: time.Unix(3, 0)}
	s = Reduce(s, FetchSucceeded{Generation: oldGen, Snapshot: stale})

	if s.Snapshot != newer {
		t.Errorf("snapshot = %+v, want the newer fetch", s.Snapshot)
	}
	if s.Date != "2024-01-02" || s.Loading {
		t.Errorf("state = %+v", s)
	}

	s = Reduce(s, FetchFailed{Generation: oldGen, Err: errors.New("late failure")})
	if s.Err != "" || s.Snapshot != newer {
		t.Errorf("stale failure changed state: %+v", s)
	}
}

// TestReduceDoesNotMutateInput verifies Reduce returns a new value.
func TestReduceDoesNotMutateInput(t *testing.T) {
	before := State{Date: "2024-01-01", Generation: 4}
	after := Reduce(before, FetchStarted{Date: "2024-01-02"})
	if before.Generation != 4 || before.Date != "2024-01-01" {
		t.Errorf("input modified: %+v", before)
	}
	if after.Generation != 5 {
		t.Errorf("generation = %d, want 5", after.Generation)
	}
}

// TestReduceFieldErrorMessage verifies one message is kept and the last
// failing field wins.
func TestReduceFieldErrorMessage(t *testing.T) {
	s := Reduce(State{Permission: PermissionGranted}, FetchStarted{Date: "2024-01-01"})
	snap := &Snapshot{Errors: map[Field]error{
		FieldSteps: errors.New("a"),
		FieldSleep: errors.New("b"),
	}}
	s = Reduce(s, FetchSucceeded{Generation: s.Generation, Snapshot: snap})
	if s.Err != "failed to load sleep: b" {
		t.Errorf("err = %q", s.Err)
	}
	if s.Snapshot != snap {
		t.Error("partial snapshot should still be committed")
	}
}

// TestReducePermissionResolution verifies Unknown becomes Granted after a
// successful read and Denied when every read is refused.
func TestReducePermissionResolution(t *testing.T) {
	s := Reduce(State{}, PermissionChanged{State: PermissionUnknown})
	s = Reduce(s, FetchStarted{Date: "2024-01-01"})
	s = Reduce(s, FetchSucceeded{Generation: s.Generation, Snapshot: &Snapshot{Errors: map[Field]error{}}})
	if s.Permission != PermissionGranted {
		t.Errorf("permission = %v, want granted", s.Permission)
	}

	denied := map[Field]error{}
	for _, f := range fieldOrder {
		denied[f] = fmt.Errorf("read %s: %w", f, ErrPermissionDenied)
	}
	s = Reduce(s, FetchStarted{Date: "2024-01-02"})
	s = Reduce(s, FetchSucceeded{Generation: s.Generation, Snapshot: &Snapshot{Errors: denied}})
	if s.Permission != PermissionDenied {
		t.Errorf("permission = %v, want denied", s.Permission)
	}
}

// TestReducePermissionRevoked verifies revocation discards the snapshot.
func TestReducePermissionRevoked(t *testing.T) {
	s := State{Permission: PermissionGranted, Snapshot: &Snapshot{}}
	s = Reduce(s, PermissionRevoked{})
	if s.Snapshot != nil || s.Permission != PermissionDenied {
		t.Errorf("state = %+v", s)
	}
}

// TestSessionRefresh runs a full refresh against a fake provider.
func TestSessionRefresh(t *testing.T) {
	p := &fakeProvider{permission: PermissionUnknown, steps: Quantity{Total: total(42)}}
	sess := NewSession(p, discard)
	sess.SetSettleDelay(0)

	st, err := sess.Refresh(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Snapshot == nil || st.Snapshot.Steps != 42 {
		t.Fatalf("snapshot = %+v", st.Snapshot)
	}
	if st.Permission != PermissionGranted {
		t.Errorf("permission = %v, want granted", st.Permission)
	}
}

// TestSessionRefreshDenied verifies an explicit denial fails the fetch.
func TestSessionRefreshDenied(t *testing.T) {
	sess := NewSession(&fakeProvider{permission: PermissionDenied}, discard)
	sess.SetSettleDelay(0)

	st, err := sess.Refresh(context.Background(), day)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if st.Snapshot != nil || st.Err == "" {
		t.Errorf("state = %+v", st)
	}
}

// TestSessionRefreshRevoked verifies a grant withdrawn between refreshes
// drops the snapshot and reports the denial; the next prompt restores it.
func TestSessionRefreshRevoked(t *testing.T) {
	p := &fakeProvider{permission: PermissionGranted, steps: Quantity{Total: total(42)}}
	sess := NewSession(p, discard)
	sess.SetSettleDelay(0)

	if _, err := sess.Refresh(context.Background(), day); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	p.stepsErr, p.energyErr, p.hrErr, p.sleepErr = ErrPermissionDenied, ErrPermissionDenied, ErrPermissionDenied, ErrPermissionDenied
	st, err := sess.Refresh(context.Background(), day)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if st.Snapshot != nil || st.Permission != PermissionDenied || st.Loading {
		t.Errorf("state after revocation = %+v", st)
	}

	p.stepsErr, p.energyErr, p.hrErr, p.sleepErr = nil, nil, nil, nil
	st, err = sess.Refresh(context.Background(), day)
	if err != nil {
		t.Fatalf("refresh after re-grant: %v", err)
	}
	if st.Snapshot == nil || st.Snapshot.Steps != 42 || st.Permission != PermissionGranted {
		t.Errorf("state after re-grant = %+v", st)
	}
}

// TestSessionRefreshUnavailable verifies a missing health store surfaces a
// single message and no snapshot.
func TestSessionRefreshUnavailable(t *testing.T) {
	sess := NewSession(&fakeProvider{unavailable: true, permission: PermissionGranted}, discard)
	sess.SetSettleDelay(0)

	st, err := sess.Refresh(context.Background(), day)
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if st.Snapshot != nil || st.Loading {
		t.Errorf("state = %+v", st)
	}
}

// slowDayProvider blocks the steps read for one date until released.
type slowDayProvider struct {
	*fakeProvider
	slowDate string
	started  chan struct{}
	release  chan struct{}
}

func (p *slowDayProvider) Steps(ctx context.Context, w Window) (Quantity, error) {
	if w.Start.Format("2006-01-02") == p.slowDate {
		close(p.started)
		<-p.release
		return Quantity{Total: total(1)}, nil
	}
	return Quantity{Total: total(2)}, nil
}

// TestSessionDiscardsLateFetch starts a slow fetch, lets a newer fetch
// finish, then releases the slow one and checks it was discarded.
func TestSessionDiscardsLateFetch(t *testing.T) {
	p := &slowDayProvider{
		fakeProvider: &fakeProvider{permission: PermissionGranted},
		slowDate:     "2024-05-09",
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	sess := NewSession(p, discard)
	sess.SetSettleDelay(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sess.Refresh(context.Background(), day.AddDate(0, 0, -1))
	}()
	<-p.started

	st, err := sess.Refresh(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Snapshot.Steps != 2 {
		t.Fatalf("steps = %d, want 2", st.Snapshot.Steps)
	}

	close(p.release)
	<-done

	final := sess.State()
	if final.Snapshot.Steps != 2 || final.Date != "2024-05-10" {
		t.Errorf("late fetch overwrote state: date %s steps %d", final.Date, final.Snapshot.Steps)
	}
}
