package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"stylus/internal/services"
)

// Device abstracts the blocking audio input. Open must fail fast when the
// hardware is absent; ReadFrame blocks for at most one buffer period.
type Device interface {
	Open(ctx context.Context) error
	ReadFrame(samples []int16) error
	Close() error
}

// ALSADevice reads raw S16_LE PCM from an arecord child process. Driving the
// capture tool as a subprocess keeps the daemon free of cgo while the kernel
// paces reads at the device buffer period.
type ALSADevice struct {
	name       string
	sampleRate int
	channels   int
	binary     string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	raw    []byte
}

// NewALSADevice constructs a device for the named ALSA capture port.
func NewALSADevice(name string, sampleRate, channels int) *ALSADevice {
	return &ALSADevice{
		name:       name,
		sampleRate: sampleRate,
		channels:   channels,
		binary:     "arecord",
	}
}

// Open starts the capture subprocess. A missing binary or device is a startup
// failure, not something the capture loop retries.
func (d *ALSADevice) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return nil
	}

	path, err := exec.LookPath(d.binary)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "capture", "open device",
			fmt.Sprintf("%s not found on PATH", d.binary), err)
	}

	cmd := exec.CommandContext(ctx, path,
		"-q",
		"-D", d.name,
		"-f", "S16_LE",
		"-r", strconv.Itoa(d.sampleRate),
		"-c", strconv.Itoa(d.channels),
		"-t", "raw",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "capture", "open device", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrNotFound, "capture", "open device",
			fmt.Sprintf("start %s for %q", d.binary, d.name), err)
	}

	d.cmd = cmd
	d.stdout = stdout
	return nil
}

// ReadFrame fills samples with the next interleaved PCM frame, blocking until
// the device delivers enough bytes.
func (d *ALSADevice) ReadFrame(samples []int16) error {
	d.mu.Lock()
	stdout := d.stdout
	d.mu.Unlock()
	if stdout == nil {
		return services.Wrap(services.ErrTransient, "capture", "read", "device not open", nil)
	}

	need := len(samples) * 2
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	buf := d.raw[:need]
	if _, err := io.ReadFull(stdout, buf); err != nil {
		return services.Wrap(services.ErrTransient, "capture", "read", "short read from device", err)
	}
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return nil
}

// Close stops the capture subprocess and releases the device.
func (d *ALSADevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd == nil {
		return nil
	}
	if d.stdout != nil {
		_ = d.stdout.Close()
		d.stdout = nil
	}
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	err := d.cmd.Wait()
	d.cmd = nil
	if err != nil {
		// arecord exits non-zero when killed; the device is released either way.
		return nil
	}
	return nil
}
