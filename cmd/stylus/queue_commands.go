package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stylus/internal/logging"
	"stylus/internal/scrobble"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the scrobble retry queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued scrobbles awaiting redelivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.ListQueue(cmd.Context())
			if err != nil {
				return fmt.Errorf("list queue: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Retry queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.Entry.Artist,
					item.Entry.Title,
					formatUnix(item.Entry.PlayedAt),
					strconv.Itoa(item.Attempts),
					item.LastError,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Artist", "Title", "Played", "Attempts", "Last Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all queued scrobbles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop queued scrobbles without --yes")
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.ClearQueue(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear queue: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queued scrobbles.\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm dropping queued scrobbles")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Attempt redelivery of queued scrobbles now",
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

			logger := logging.NewNop()
			backend := scrobble.NewMaloja(cfg, logger, store, nil)
			if !backend.Available() {
				return fmt.Errorf("maloja backend is not configured")
			}

			flusher := scrobble.NewFlusher(cfg, logger, store, backend)
			delivered := flusher.Flush(cmd.Context())

			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read queue stats: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d queued scrobbles, %d remaining.\n", delivered, stats.QueueDepth)
			return nil
		},
	}
}

func formatUnix(seconds int64) string {
	if seconds == 0 {
		return ""
	}
	return time.Unix(seconds, 0).Local().Format("2006-01-02 15:04")
}
