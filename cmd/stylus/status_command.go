package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read store stats: %w", err)
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "stylusd.lock")
			running := daemonRunning(lockPath)

			rows := [][]string{
				{"Daemon", formatRunning(running)},
				{"Capture device", cfg.Audio.Device},
				{"Scrobbles delivered", strconv.Itoa(stats.HistoryTotal)},
				{"Queue depth", strconv.Itoa(stats.QueueDepth)},
				{"Database", store.Path()},
				{"Lock file", lockPath},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// daemonRunning probes the daemon's lock file. A lock we cannot take means
// a running stylusd holds it.
func daemonRunning(lockPath string) bool {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return false
	}
	if locked {
		_ = lock.Unlock()
		return false
	}
	return true
}

func formatRunning(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
