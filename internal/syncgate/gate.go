// Package syncgate pushes a client snapshot to the backend at most once per
// cooldown window.
package syncgate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/claude/healthsync/internal/client"
	"github.com/claude/healthsync/internal/healthdata"
	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/storage"
)

const (
	// DefaultCooldown is the minimum time between two sync batches.
	DefaultCooldown = 5 * time.Minute
	// MaxHeartRateSamples is how many of the latest heart-rate samples a batch sends.
	MaxHeartRateSamples = 10
)

// Remote receives sync records. Both the REST client and the store satisfy it.
type Remote interface {
	UpsertSteps(ctx context.Context, s models.Steps) error
	AppendHeartRate(ctx context.Context, h models.HeartRate) error
	UpsertSleep(ctx context.Context, s models.Sleep) error
	UpsertCalories(ctx context.Context, c models.Calories) error
	AppendWorkout(ctx context.Context, w models.Workout) error
}

var (
	_ Remote = (*storage.DB)(nil)
	_ Remote = (*client.Client)(nil)
)

// Reason explains why an attempt did not complete.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonCooldown   Reason = "cooldown"
	ReasonNoSnapshot Reason = "no_snapshot"
	ReasonCancelled  Reason = "cancelled"
)

// RecordResult is the outcome of one remote call. Index is the position of
// the record within its kind.
type RecordResult struct {
	Kind  models.Kind
	Index int
	Err   error
}

// Result reports one Attempt. LastSync is the marker the caller should keep.
type Result struct {
	Performed bool
	Reason    Reason
	Date      string
	Records   []RecordResult
	LastSync  time.Time
}

// FirstErr returns the first per-record error, or nil.
func (r Result) FirstErr() error {
	for _, rec := range r.Records {
		if rec.Err != nil {
			return rec.Err
		}
	}
	return nil
}

// LastErr returns the last per-record error, or nil.
func (r Result) LastErr() error {
	for i := len(r.Records) - 1; i >= 0; i-- {
		if r.Records[i].Err != nil {
			return r.Records[i].Err
		}
	}
	return nil
}

// Failed counts records whose call returned an error.
func (r Result) Failed() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Err != nil {
			n++
		}
	}
	return n
}

// Options tunes a Gate. Zero values select the defaults.
type Options struct {
	Cooldown time.Duration
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	Sleep    healthdata.SleepOptions
}

// Gate maps a snapshot into records and sends them to a Remote.
type Gate struct {
	remote   Remote
	cooldown time.Duration
	loc      *time.Location
	sleep    healthdata.SleepOptions
	log      *slog.Logger
}

// New creates a Gate.
func New(remote Remote, log *slog.Logger, opts Options) *Gate {
	g := &Gate{
		remote:   remote,
		cooldown: opts.Cooldown,
		loc:      opts.Location,
		sleep:    opts.Sleep,
		log:      log,
	}
	if g.cooldown <= 0 {
		g.cooldown = DefaultCooldown
	}
	if g.loc == nil {
		g.loc = time.UTC
	}
	return g
}

// Attempt sends snap unless the last sync is within the cooldown. Records are
// dated with the current day at now, not with the snapshot's date. Every call
// is made once, in order, and a failure does not stop the batch. LastSync
// advances to now when the batch runs to completion.
func (g *Gate) Attempt(ctx context.Context, snap *healthdata.Snapshot, lastSync, now time.Time) Result {
	res := Result{LastSync: lastSync}
	if snap == nil {
		res.Reason = ReasonNoSnapshot
		g.log.Debug("sync skipped", "reason", res.Reason)
		return res
	}
	if !lastSync.IsZero() && now.Sub(lastSync) < g.cooldown {
		res.Reason = ReasonCooldown
		g.log.Debug("sync skipped", "reason", res.Reason, "since_last", now.Sub(lastSync))
		return res
	}

	res.Date = now.In(g.loc).Format(models.DateLayout)
	for _, c := range g.batch(snap, res.Date) {
		if ctx.Err() != nil {
			res.Reason = ReasonCancelled
			g.log.Info("sync cancelled", "date", res.Date, "sent", len(res.Records))
			return res
		}
		err := c.send(ctx, g.remote)
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			res.Reason = ReasonCancelled
			g.log.Info("sync cancelled", "date", res.Date, "sent", len(res.Records))
			return res
		}
		if err != nil {
			g.log.Warn("sync record failed", "kind", c.kind, "index", c.index, "error", err)
		}
		res.Records = append(res.Records, RecordResult{Kind: c.kind, Index: c.index, Err: err})
	}

	res.Performed = true
	res.LastSync = now
	g.log.Info("sync complete", "date", res.Date, "records", len(res.Records), "failed", res.Failed())
	return res
}
