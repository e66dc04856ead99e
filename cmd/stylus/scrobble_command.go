package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stylus/internal/logging"
	"stylus/internal/recognition"
	"stylus/internal/scrobble"
)

func newScrobbleCommand(ctx *commandContext) *cobra.Command {
	scrobbleCmd := &cobra.Command{
		Use:   "scrobble",
		Short: "Scrobble delivery utilities",
	}

	scrobbleCmd.AddCommand(newScrobbleTestCommand(ctx))

	return scrobbleCmd
}

func newScrobbleTestCommand(ctx *commandContext) *cobra.Command {
	var artist, title string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test scrobble to the configured backend",
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

			backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, nil)
			result := recognition.Result{
				Success:    true,
				Confidence: 1.0,
				Provider:   "test",
				Artist:     artist,
				Title:      title,
			}

			outcome, err := backend.Deliver(cmd.Context(), result, time.Now())
			out := cmd.OutOrStdout()
			switch outcome {
			case scrobble.OutcomeSuccess:
				fmt.Fprintf(out, "Delivered test scrobble %q - %q.\n", artist, title)
			case scrobble.OutcomeQueued:
				fmt.Fprintln(out, "Backend unreachable; test scrobble was queued for retry.")
			case scrobble.OutcomeDisabled:
				fmt.Fprintln(out, "Maloja backend is disabled or has no endpoint configured.")
			default:
				return fmt.Errorf("test scrobble failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "Stylus", "Artist for the test scrobble")
	cmd.Flags().StringVar(&title, "title", "Test Scrobble", "Title for the test scrobble")
	return cmd
}
