package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/claude/healthsync/internal/syncgate"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and recent attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)

		if serverURL != "" {
			c, _ := newClient()
			if err := c.Health(ctx); err != nil {
				color.New(color.FgRed).Fprintf(out, "Server:     %s (unreachable: %v)\n", serverURL, err)
			} else {
				fmt.Fprintf(out, "Server:     %s %s\n", serverURL, color.GreenString("ok"))
			}
		}

		state, err := syncgate.OpenStateDB(stateDir)
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer state.Close()

		last, err := state.LastSync(ctx)
		if err != nil {
			return err
		}
		if last.IsZero() {
			fmt.Fprintln(out, "Last sync:  never")
		} else {
			next := last.Add(cooldown)
			fmt.Fprintf(out, "Last sync:  %s (%s ago)\n", last.Local().Format(time.DateTime), time.Since(last).Round(time.Second))
			if wait := time.Until(next); wait > 0 {
				fmt.Fprintf(out, "Next sync:  in %s\n", wait.Round(time.Second))
			}
		}

		attempts, err := state.RecentAttempts(ctx, statusLimit)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			return nil
		}
		fmt.Fprintln(out, "\nRecent attempts:")
		for _, a := range attempts {
			outcome := color.GreenString("ok")
			switch {
			case !a.Performed:
				outcome = color.YellowString(string(a.Reason))
			case a.Failed > 0:
				outcome = color.RedString("%d/%d failed", a.Failed, a.Records)
			}
			fmt.Fprintf(out, "  %s  %s  %-10s %s\n",
				faint.Sprint(a.ID[len(a.ID)-8:]),
				a.AttemptedAt.Local().Format(time.DateTime),
				a.Date,
				outcome)
			if a.LastError != "" {
				faint.Fprintf(out, "      %s\n", a.LastError)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of attempts to show")
	rootCmd.AddCommand(statusCmd)
}
