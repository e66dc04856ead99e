package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stylus/internal/config"
	"stylus/internal/logging"
)

type fakeDevice struct {
	mu        sync.Mutex
	openErr   error
	reads     int
	failEvery int
	closed    bool
}

func (d *fakeDevice) Open(context.Context) error { return d.openErr }

func (d *fakeDevice) ReadFrame(samples []int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.failEvery > 0 && d.reads%d.failEvery == 0 {
		return errors.New("overrun")
	}
	for i := range samples {
		samples[i] = 0
	}
	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) readCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func newMonitorConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SpoolDir = t.TempDir()
	cfg.Audio.SampleRate = testRate
	cfg.Audio.Channels = 1
	cfg.Audio.FrameSamples = testFrameSize
	cfg.Detection.ReadRetrySeconds = 0.001
	return &cfg
}

func TestMonitorStartStop(t *testing.T) {
	cfg := newMonitorConfig(t)
	device := &fakeDevice{}
	seg := NewSegmenter(cfg, logging.NewNop(), nil)
	monitor := NewMonitor(cfg, logging.NewNop(), device, seg)

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !monitor.Running() {
		t.Fatal("expected monitor running")
	}
	if err := monitor.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for device.readCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if device.readCount() == 0 {
		t.Fatal("expected device reads")
	}

	monitor.Stop()
	if monitor.Running() {
		t.Fatal("expected monitor stopped")
	}
	if !device.closed {
		t.Fatal("expected device closed")
	}
}

func TestMonitorOpenFailureIsFatal(t *testing.T) {
	cfg := newMonitorConfig(t)
	device := &fakeDevice{openErr: errors.New("no such device")}
	seg := NewSegmenter(cfg, logging.NewNop(), nil)
	monitor := NewMonitor(cfg, logging.NewNop(), device, seg)

	if err := monitor.Start(context.Background()); err == nil {
		t.Fatal("expected open failure to propagate")
	}
	if monitor.Running() {
		t.Fatal("monitor must not run after failed open")
	}
}

func TestMonitorRetriesTransientReadErrors(t *testing.T) {
	cfg := newMonitorConfig(t)
	device := &fakeDevice{failEvery: 3}
	seg := NewSegmenter(cfg, logging.NewNop(), nil)
	monitor := NewMonitor(cfg, logging.NewNop(), device, seg)

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer monitor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for device.readCount() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// Reads past the first failure prove the loop survived it.
	if device.readCount() < 10 {
		t.Fatalf("expected loop to keep reading after errors, got %d reads", device.readCount())
	}
}
