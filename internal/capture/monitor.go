package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"stylus/internal/config"
	"stylus/internal/logging"
)

// Monitor owns the dedicated capture loop: it blocks on device reads and
// feeds frames to the segmenter. Nothing downstream may block it; track
// hand-off happens through the segmenter's sink.
type Monitor struct {
	logger    *slog.Logger
	device    Device
	segmenter *Segmenter

	frameSamples int
	retryDelay   time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewMonitor wires a device and segmenter into a capture loop.
func NewMonitor(cfg *config.Config, logger *slog.Logger, device Device, segmenter *Segmenter) *Monitor {
	return &Monitor{
		logger:       logging.NewComponentLogger(logger, "capture"),
		device:       device,
		segmenter:    segmenter,
		frameSamples: cfg.Audio.FrameSamples,
		retryDelay:   cfg.ReadRetryDelay(),
	}
}

// Start opens the device and launches the capture goroutine. A device that
// cannot be opened is fatal; the caller should abort startup.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("capture monitor already running")
	}

	if err := m.device.Open(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.loop(loopCtx, m.done)

	m.logger.Info("audio monitoring started",
		logging.Int("frame_samples", m.frameSamples))
	return nil
}

// Stop cancels the capture loop, waits for the current read to finish, and
// releases the device. In-flight recognition tasks are not awaited.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.running = false
	m.mu.Unlock()

	cancel()
	if err := m.device.Close(); err != nil {
		m.logger.Warn("error closing audio device", logging.Error(err))
	}
	<-done
	m.logger.Info("audio monitoring stopped")
}

// Segmenter exposes the wired segmenter for status reporting.
func (m *Monitor) Segmenter() *Segmenter {
	return m.segmenter
}

// Running reports whether the capture loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	samples := make([]int16, m.frameSamples)
	for {
		if ctx.Err() != nil {
			return
		}

		if err := m.device.ReadFrame(samples); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient read errors never corrupt segmenter state; pause
			// briefly and try again.
			m.logger.Error("error reading audio data", logging.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.retryDelay):
			}
			continue
		}

		m.segmenter.ProcessFrame(Frame{Samples: samples, At: time.Now()})
	}
}
