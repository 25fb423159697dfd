package syncgate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/healthsync/internal/healthdata"
)

// Syncer runs the gate against a persisted last-sync marker. Attempts from
// one Syncer are serialized; separate processes sharing a state dir can
// still both pass the cooldown check.
type Syncer struct {
	gate  *Gate
	state *StateDB
	log   *slog.Logger
	now   func() time.Time

	mu sync.Mutex
}

// NewSyncer creates a Syncer.
func NewSyncer(gate *Gate, state *StateDB, log *slog.Logger) *Syncer {
	return &Syncer{gate: gate, state: state, log: log, now: time.Now}
}

// Sync attempts one batch for snap and records the outcome. The returned
// error covers the state database only; per-record failures are in Result.
func (s *Syncer) Sync(ctx context.Context, snap *healthdata.Snapshot) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// State bookkeeping must survive a cancelled attempt.
	bg := context.WithoutCancel(ctx)
	last, err := s.state.LastSync(bg)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	res := s.gate.Attempt(ctx, snap, last, now)
	if res.Reason == ReasonCooldown {
		return res, nil
	}

	if res.Performed {
		if err := s.state.SetLastSync(bg, res.LastSync); err != nil {
			return res, err
		}
	}
	if _, err := s.state.RecordAttempt(bg, res, now); err != nil {
		return res, fmt.Errorf("sync ran but was not logged: %w", err)
	}
	return res, nil
}
