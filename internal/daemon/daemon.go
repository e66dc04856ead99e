package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"stylus/internal/capture"
	"stylus/internal/config"
	"stylus/internal/history"
	"stylus/internal/logging"
	"stylus/internal/pipeline"
	"stylus/internal/scrobble"
)

// Daemon coordinates the capture loop, retry flusher, and hotplug monitor,
// and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *history.Store
	monitor    *capture.Monitor
	flusher    *scrobble.Flusher
	supervisor *pipeline.Supervisor
	hotplug    *hotplugMonitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Capture      capture.Snapshot
	Pipeline     pipeline.Stats
	Store        history.Stats
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store, monitor *capture.Monitor, flusher *scrobble.Flusher, supervisor *pipeline.Supervisor) (*Daemon, error) {
	if cfg == nil || logger == nil || store == nil || monitor == nil {
		return nil, errors.New("daemon requires config, logger, store, and capture monitor")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "stylusd.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		monitor:    monitor,
		flusher:    flusher,
		supervisor: supervisor,
		hotplug:    newHotplugMonitor(cfg, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the background services. A
// capture device that cannot be opened aborts startup.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another stylus daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.monitor.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}
	if d.flusher != nil {
		d.flusher.Start(runCtx)
	}
	if d.supervisor != nil {
		d.supervisor.StartMaintenance(runCtx, time.Duration(d.cfg.Dedup.CleanupInterval)*time.Second)
	}
	if err := d.hotplug.Start(runCtx); err != nil {
		d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("stylus daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock. In-flight
// recognition tasks are not awaited.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.hotplug.Stop()
	d.monitor.Stop()
	if d.flusher != nil {
		d.flusher.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("stylus daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status summarizes daemon state for diagnostics.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if d.supervisor != nil {
		status.Pipeline = d.supervisor.Stats()
	}
	if seg := d.monitor.Segmenter(); seg != nil {
		status.Capture = seg.Status(time.Now())
	}
	if stats, err := d.store.GetStats(ctx); err == nil {
		status.Store = stats
	}
	return status
}
