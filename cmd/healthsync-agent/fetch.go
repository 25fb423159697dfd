package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [date]",
	Short: "Read one day of health data and print it",
	Long: `Read one day from the export file and print the normalized values.
Nothing is sent to the server. The date defaults to today in --timezone.

EXAMPLES:

  healthsync-agent fetch --export export.json
  healthsync-agent fetch 2024-03-15 --export export.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}
		var arg string
		if len(args) == 1 {
			arg = args[0]
		}
		day, err := parseDay(arg, time.Now(), loc)
		if err != nil {
			return err
		}
		sess, err := newSession()
		if err != nil {
			return err
		}

		st, err := sess.Refresh(cmd.Context(), day)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		printSnapshot(cmd.OutOrStdout(), st.Snapshot, mergeSleep)
		if st.Err != "" {
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "\n⚠ %s\n", st.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
