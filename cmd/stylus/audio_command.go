package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stylus/internal/capture"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Audio capture utilities",
	}

	audioCmd.AddCommand(newAudioTestCommand(ctx))

	return audioCmd
}

func newAudioTestCommand(ctx *commandContext) *cobra.Command {
	var seconds int

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Read from the capture device and report signal levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			device := capture.NewALSADevice(cfg.Audio.Device, cfg.Audio.SampleRate, cfg.Audio.Channels)
			if err := device.Open(cmd.Context()); err != nil {
				return fmt.Errorf("open capture device %q: %w", cfg.Audio.Device, err)
			}
			defer device.Close()

			out := cmd.OutOrStdout()
			live := isTerminal(out)
			fmt.Fprintf(out, "Capturing from %s for %ds (threshold %.4f)...\n",
				cfg.Audio.Device, seconds, cfg.Detection.SilenceThreshold)

			samples := make([]int16, cfg.Audio.FrameSamples)
			framesPerSecond := float64(cfg.Audio.SampleRate*cfg.Audio.Channels) / float64(cfg.Audio.FrameSamples)
			totalFrames := int(framesPerSecond * float64(seconds))

			var minLevel, maxLevel, sum float64
			minLevel = 1.0
			musicFrames := 0

			for i := 0; i < totalFrames; i++ {
				if cmd.Context().Err() != nil {
					break
				}
				if err := device.ReadFrame(samples); err != nil {
					return fmt.Errorf("read audio frame: %w", err)
				}

				level := capture.Level(samples)
				sum += level
				if level < minLevel {
					minLevel = level
				}
				if level > maxLevel {
					maxLevel = level
				}
				if level >= cfg.Detection.SilenceThreshold {
					musicFrames++
				}

				if live {
					fmt.Fprintf(out, "\rlevel %.4f %s", level, levelBar(level))
				}
			}
			if live {
				fmt.Fprintln(out)
			}

			if totalFrames == 0 {
				return fmt.Errorf("capture window too short")
			}
			fmt.Fprintf(out, "min %.4f  avg %.4f  max %.4f\n", minLevel, sum/float64(totalFrames), maxLevel)
			if musicFrames == 0 {
				fmt.Fprintln(out, "No frames crossed the silence threshold. Check device wiring and gain.")
			} else {
				fmt.Fprintf(out, "%d of %d frames crossed the silence threshold.\n", musicFrames, totalFrames)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&seconds, "seconds", "s", 5, "How long to sample the device")
	return cmd
}

func levelBar(level float64) string {
	const width = 40
	filled := int(level * float64(width) * 10)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + "]"
}
