package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/healthsync/internal/client"
	"github.com/claude/healthsync/internal/healthdata"
	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/syncgate"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	exportPath string
	stateDir   string
	timezone   string
	cooldown   time.Duration
	mergeSleep bool
	verbose    bool

	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "healthsync-agent",
	Short:   "Read health data on this device and sync it to a healthsync server",
	Version: Version,
	Long: `healthsync-agent reads one day of health data from a Health Auto Export
JSON file, normalizes it and pushes it to a healthsync server.

COMMANDS:

  fetch [date]   Read and print one day without sending anything
  sync           Read today and sync it, unless the last sync was too recent
  watch          Sync on an interval until interrupted
  status         Show the last sync time and recent attempts

EXAMPLES:

  healthsync-agent fetch --export ~/HealthAutoExport.json
  healthsync-agent sync --server http://healthsync.tail1234.ts.net --export export.json
  healthsync-agent watch --interval 15m

The server URL may also be set with HEALTHSYNC_SERVER.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		if serverURL == "" {
			serverURL = os.Getenv("HEALTHSYNC_SERVER")
		}
		serverURL = strings.TrimRight(serverURL, "/")

		if stateDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			stateDir = filepath.Join(home, ".healthsync-agent")
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&serverURL, "server", "s", "", "healthsync server URL")
	pf.StringVarP(&exportPath, "export", "e", "", "path to a Health Auto Export JSON file")
	pf.StringVar(&stateDir, "state-dir", "", "directory for the sync state database (default ~/.healthsync-agent)")
	pf.StringVar(&timezone, "timezone", "Local", "IANA zone deciding which calendar day is today")
	pf.DurationVar(&cooldown, "cooldown", syncgate.DefaultCooldown, "minimum time between syncs")
	pf.BoolVar(&mergeSleep, "merge-sleep", false, "merge overlapping sleep intervals before totalling")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// parseDay resolves a YYYY-MM-DD argument in loc; empty means today.
func parseDay(arg string, now time.Time, loc *time.Location) (time.Time, error) {
	if arg == "" {
		return now.In(loc), nil
	}
	day, err := time.ParseInLocation(models.DateLayout, arg, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", arg)
	}
	return day, nil
}

func newSession() (*healthdata.Session, error) {
	if exportPath == "" {
		return nil, errors.New("--export is required")
	}
	sess := healthdata.NewSession(healthdata.NewFileProvider(exportPath), log)
	// Files need no permission prompt to settle.
	sess.SetSettleDelay(0)
	return sess, nil
}

func newClient() (*client.Client, error) {
	if serverURL == "" {
		return nil, errors.New("--server is required (or set HEALTHSYNC_SERVER)")
	}
	return client.New(serverURL), nil
}

// agent bundles what sync and watch need for one run.
type agent struct {
	session *healthdata.Session
	syncer  *syncgate.Syncer
	state   *syncgate.StateDB
	loc     *time.Location
}

func newAgent() (*agent, error) {
	loc, err := location()
	if err != nil {
		return nil, err
	}
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	state, err := syncgate.OpenStateDB(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	gate := syncgate.New(c, log, syncgate.Options{
		Cooldown: cooldown,
		Location: loc,
		Sleep:    healthdata.SleepOptions{MergeOverlaps: mergeSleep},
	})
	return &agent{
		session: sess,
		syncer:  syncgate.NewSyncer(gate, state, log),
		state:   state,
		loc:     loc,
	}, nil
}
