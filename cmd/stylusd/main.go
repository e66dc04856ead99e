package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"stylus/internal/config"
	"stylus/internal/deps"
	"stylus/internal/history"
	"stylus/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, missing := range deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg))) {
		logger.Error("required external tool unavailable",
			logging.String("tool", missing.Name),
			logging.String("detail", missing.Detail))
		return
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return
	}

	d, err := buildDaemon(ctx, cfg, logger, store)
	if err != nil {
		logger.Error("assemble daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("stylusd shutting down")
	d.Stop()
}
