package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/claude/healthsync/internal/syncgate"
)

var watchInterval time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Read today's data and sync it to the server",
	Long: `Read today's data and send it to the server as one batch: steps, the
latest heart-rate samples, sleep, calories and workouts.

The batch is skipped when the previous sync finished less than --cooldown
ago. A record the server rejects does not stop the rest of the batch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAgent()
		if err != nil {
			return err
		}
		defer a.state.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err := a.run(ctx, time.Now())
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), res)
		if res.Failed() > 0 {
			return fmt.Errorf("%d of %d records failed", res.Failed(), len(res.Records))
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync on an interval until interrupted",
	Long: `Check the server is reachable, then fetch and sync every --interval.
Ticks inside the cooldown window are skipped without contacting the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAgent()
		if err != nil {
			return err
		}
		defer a.state.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, _ := newClient()
		if err := c.Health(ctx); err != nil {
			return fmt.Errorf("server health check failed: %w", err)
		}
		log.Info("watching", "server", serverURL, "interval", watchInterval, "cooldown", cooldown)

		return a.watch(ctx, cmd.OutOrStdout(), watchInterval)
	},
}

// run fetches the day containing now and hands the snapshot to the syncer.
// A failed fetch still reaches the syncer so the attempt is logged.
func (a *agent) run(ctx context.Context, now time.Time) (syncgate.Result, error) {
	st, err := a.session.Refresh(ctx, now.In(a.loc))
	if err != nil {
		log.Warn("fetch failed", "error", err)
	}
	return a.syncer.Sync(ctx, st.Snapshot)
}

func (a *agent) watch(ctx context.Context, w io.Writer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := a.run(ctx, time.Now())
		switch {
		case err != nil:
			log.Error("sync state error", "error", err)
		case res.Reason == syncgate.ReasonCooldown:
			log.Debug("sync skipped", "reason", res.Reason, "last_sync", res.LastSync)
		default:
			printResult(w, res)
		}

		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func printResult(w io.Writer, res syncgate.Result) {
	if !res.Performed {
		color.New(color.FgYellow).Fprintf(w, "Sync skipped: %s\n", res.Reason)
		if !res.LastSync.IsZero() {
			fmt.Fprintf(w, "  Last sync: %s\n", res.LastSync.Local().Format(time.DateTime))
		}
		return
	}

	fmt.Fprintf(w, "Synced %s: %d records\n", res.Date, len(res.Records))
	for _, rec := range res.Records {
		if rec.Err != nil {
			color.New(color.FgRed).Fprintf(w, "  ✗ %s #%d: %v\n", rec.Kind, rec.Index, rec.Err)
			continue
		}
		fmt.Fprintf(w, "  %s %s #%d\n", color.GreenString("✓"), rec.Kind, rec.Index)
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Minute, "time between sync attempts")
	rootCmd.AddCommand(syncCmd, watchCmd)
}
