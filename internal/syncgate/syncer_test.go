package syncgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/healthsync/internal/models"
)

func newTestSyncer(t *testing.T, remote Remote) (*Syncer, *StateDB) {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return NewSyncer(New(remote, discard, Options{}), state, discard), state
}

// TestStateDBLastSync verifies the marker round trip and the empty case.
func TestStateDBLastSync(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()
	ctx := context.Background()

	got, err := state.LastSync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("last sync = %v, want zero", got)
	}

	if err := state.SetLastSync(ctx, syncTime); err != nil {
		t.Fatal(err)
	}
	got, err = state.LastSync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(syncTime) {
		t.Errorf("last sync = %v, want %v", got, syncTime)
	}
}

// TestSyncerPersistsMarker verifies a completed batch stores the marker and
// a second run inside the cooldown is skipped.
func TestSyncerPersistsMarker(t *testing.T) {
	remote := &fakeRemote{failKinds: map[models.Kind]error{models.KindWorkouts: errors.New("rejected")}}
	s, state := newTestSyncer(t, remote)
	clock := syncTime
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	res, err := s.Sync(ctx, fullSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Performed {
		t.Fatalf("result = %+v, want performed", res)
	}

	last, err := state.LastSync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !last.Equal(syncTime) {
		t.Errorf("stored last sync = %v, want %v", last, syncTime)
	}

	calls := len(remote.calls)
	clock = syncTime.Add(2 * time.Minute)
	res, err = s.Sync(ctx, fullSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonCooldown {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonCooldown)
	}
	if len(remote.calls) != calls {
		t.Errorf("calls = %d, want %d", len(remote.calls), calls)
	}

	// Cooldown skips are not logged.
	attempts, err := state.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(attempts))
	}
	a := attempts[0]
	if !a.Performed || a.Failed != 1 || a.LastError != "rejected" || a.Date != "2024-06-02" {
		t.Errorf("attempt = %+v", a)
	}
}

// TestSyncerCancelledKeepsMarker verifies a cancelled batch is logged but the
// marker stays where it was.
func TestSyncerCancelledKeepsMarker(t *testing.T) {
	s, state := newTestSyncer(t, &fakeRemote{})
	s.now = func() time.Time { return syncTime }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Sync(ctx, fullSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonCancelled {
		t.Errorf("reason = %q, want %q", res.Reason, ReasonCancelled)
	}

	last, err := state.LastSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !last.IsZero() {
		t.Errorf("last sync = %v, want zero", last)
	}

	attempts, err := state.RecentAttempts(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 || attempts[0].Reason != ReasonCancelled {
		t.Errorf("attempts = %+v, want one cancelled", attempts)
	}
}
