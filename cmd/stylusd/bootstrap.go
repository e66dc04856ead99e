package main

import (
	"context"
	"log/slog"

	"stylus/internal/capture"
	"stylus/internal/config"
	"stylus/internal/daemon"
	"stylus/internal/dedup"
	"stylus/internal/history"
	"stylus/internal/notifications"
	"stylus/internal/pipeline"
	"stylus/internal/recognition"
	"stylus/internal/recognition/acoustid"
	"stylus/internal/recognition/audd"
	"stylus/internal/scrobble"
)

// buildDaemon assembles the capture, recognition, and delivery components
// from configuration.
func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *history.Store) (*daemon.Daemon, error) {
	orchestrator := recognition.NewOrchestrator(cfg, logger, buildProviders(cfg))
	deliverer := scrobble.NewMaloja(cfg, logger, store, nil)
	flusher := scrobble.NewFlusher(cfg, logger, store, deliverer)
	notifier := notifications.NewService(cfg)

	supervisor := pipeline.NewSupervisor(ctx, logger, orchestrator, dedup.New(cfg), deliverer, notifier)
	segmenter := capture.NewSegmenter(cfg, logger, supervisor.Sink())
	device := capture.NewALSADevice(cfg.Audio.Device, cfg.Audio.SampleRate, cfg.Audio.Channels)
	monitor := capture.NewMonitor(cfg, logger, device, segmenter)

	return daemon.New(cfg, logger, store, monitor, flusher, supervisor)
}

// buildProviders instantiates recognition providers in the configured
// failover order.
func buildProviders(cfg *config.Config) []recognition.Provider {
	providers := make([]recognition.Provider, 0, len(cfg.Recognition.Order))
	for _, name := range cfg.Recognition.Order {
		switch name {
		case "audd":
			providers = append(providers, audd.New(cfg, nil))
		case "acoustid":
			providers = append(providers, acoustid.New(cfg, nil))
		}
	}
	return providers
}
