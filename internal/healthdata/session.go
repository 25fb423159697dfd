package healthdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/healthsync/internal/models"
)

// DefaultSettleDelay is how long Refresh waits after a permission prompt
// before reading, giving the platform time to apply the grant.
const DefaultSettleDelay = 500 * time.Millisecond

// Session owns the State for one client and drives fetches through the
// reducer. A fetch that finishes after a newer one started is discarded.
type Session struct {
	provider Provider
	norm     *Normalizer
	log      *slog.Logger
	settle   time.Duration
	now      func() time.Time

	mu    sync.Mutex
	state State
}

// NewSession creates a Session reading from p.
func NewSession(p Provider, log *slog.Logger) *Session {
	return &Session{
		provider: p,
		norm:     NewNormalizer(log),
		log:      log,
		settle:   DefaultSettleDelay,
		now:      time.Now,
	}
}

// SetSettleDelay overrides the wait after a permission prompt.
func (s *Session) SetSettleDelay(d time.Duration) {
	s.settle = d
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
	return s.state
}

// revoke applies PermissionRevoked unless a newer fetch has started.
func (s *Session) revoke(gen uint64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Generation == gen {
		s.state = Reduce(s.state, PermissionRevoked{})
	}
	return s.state
}

// Refresh fetches day and returns the resulting state. Permission is
// requested first unless already granted. The returned error is non-nil
// only when no snapshot could be produced; a grant that has since been
// withdrawn returns ErrPermissionDenied and clears the snapshot.
func (s *Session) Refresh(ctx context.Context, day time.Time) (State, error) {
	st := s.dispatch(FetchStarted{Date: day.Format(models.DateLayout)})
	gen := st.Generation

	if st.Permission != PermissionGranted {
		perm, err := s.provider.RequestPermissions(ctx)
		if err != nil {
			err = fmt.Errorf("requesting permissions: %w", err)
			return s.dispatch(FetchFailed{Generation: gen, Err: err, At: s.now()}), err
		}
		s.dispatch(PermissionChanged{State: perm})
		if perm == PermissionDenied {
			return s.dispatch(FetchFailed{Generation: gen, Err: ErrPermissionDenied, At: s.now()}), ErrPermissionDenied
		}
		if s.settle > 0 {
			select {
			case <-time.After(s.settle):
			case <-ctx.Done():
				return s.dispatch(FetchFailed{Generation: gen, Err: ctx.Err(), At: s.now()}), ctx.Err()
			}
		}
	}

	snap, err := s.norm.Fetch(ctx, s.provider, DayWindow(day))
	if err != nil {
		s.log.Error("health data fetch failed", "date", st.Date, "error", err)
		return s.dispatch(FetchFailed{Generation: gen, Err: err, At: s.now()}), err
	}

	// Every read refused after an earlier grant means access was withdrawn
	// in the platform settings.
	if st.Permission == PermissionGranted && allDenied(snap) {
		s.log.Warn("health data access revoked", "date", st.Date)
		return s.revoke(gen), ErrPermissionDenied
	}

	next := s.dispatch(FetchSucceeded{Generation: gen, Snapshot: snap})
	if next.Generation != gen {
		s.log.Debug("discarded stale fetch", "date", st.Date, "generation", gen)
	}
	return next, nil
}
