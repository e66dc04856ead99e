package artifact

import (
	"encoding/binary"
	"os"
	"testing"
	"time"
)

func sineSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16((i % 64) * 256)
	}
	return samples
}

func TestSpoolWritesPlayableWAV(t *testing.T) {
	dir := t.TempDir()
	// 1 second of stereo audio at 8kHz.
	art, err := Spool(dir, sineSamples(16000), 8000, 2)
	if err != nil {
		t.Fatalf("Spool failed: %v", err)
	}

	if art.Duration != time.Second {
		t.Fatalf("expected 1s duration, got %v", art.Duration)
	}

	data, err := os.ReadFile(art.Path)
	if err != nil {
		t.Fatalf("read spool file: %v", err)
	}
	if len(data) != wavHeaderSize+16000*bytesPerSample {
		t.Fatalf("unexpected file size %d", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header: %q %q", data[:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Fatalf("expected 2 channels in header, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 8000 {
		t.Fatalf("expected 8000 sample rate in header, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 16000*bytesPerSample {
		t.Fatalf("unexpected data chunk size %d", got)
	}
}

func TestReleaseDeletesExactlyOnce(t *testing.T) {
	art, err := Spool(t.TempDir(), sineSamples(1024), 44100, 2)
	if err != nil {
		t.Fatalf("Spool failed: %v", err)
	}

	if art.Released() {
		t.Fatal("artifact should not start released")
	}
	if err := art.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if _, err := os.Stat(art.Path); !os.IsNotExist(err) {
		t.Fatal("expected backing file to be deleted")
	}
	if err := art.Release(); err != nil {
		t.Fatalf("second Release should be a no-op, got %v", err)
	}
	if !art.Released() {
		t.Fatal("artifact should report released")
	}
}

func TestSpoolRejectsEmptyBuffer(t *testing.T) {
	if _, err := Spool(t.TempDir(), nil, 44100, 2); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}
