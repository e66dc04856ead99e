package artifact

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Artifact is a spooled, self-contained WAV encoding of one candidate track.
// It is an ownership handle: exactly one consumer calls Release, which deletes
// the backing file. Further Release calls are no-ops.
type Artifact struct {
	ID         string
	Path       string
	Duration   time.Duration
	SampleRate int
	Channels   int

	released atomic.Bool
}

// Spool writes interleaved 16-bit PCM samples to a WAV file in dir and
// returns the owning handle.
func Spool(dir string, samples []int16, sampleRate, channels int) (*Artifact, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to spool")
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid format: rate=%d channels=%d", sampleRate, channels)
	}

	id := uuid.NewString()
	path := filepath.Join(dir, "track-"+id+".wav")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	if err := writeWAV(file, samples, sampleRate, channels); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close spool file: %w", err)
	}

	seconds := float64(len(samples)) / float64(sampleRate*channels)
	return &Artifact{
		ID:         id,
		Path:       path,
		Duration:   time.Duration(seconds * float64(time.Second)),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Release deletes the backing file. The first call wins; subsequent calls
// return nil without touching the filesystem.
func (a *Artifact) Release() error {
	if a == nil {
		return nil
	}
	if !a.released.CompareAndSwap(false, true) {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Released reports whether the handle has been consumed.
func (a *Artifact) Released() bool {
	return a != nil && a.released.Load()
}

const (
	wavHeaderSize   = 44
	bytesPerSample  = 2
	pcmFormatTag    = 1
	fmtChunkSize    = 16
	bitsPerSampleLE = 16
)

func writeWAV(file *os.File, samples []int16, sampleRate, channels int) error {
	dataSize := len(samples) * bytesPerSample
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	w := bufio.NewWriter(file)

	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(wavHeaderSize-8+dataSize))
	w.WriteString("WAVE")
	w.WriteString("fmt ")
	binary.Write(w, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(w, binary.LittleEndian, uint16(pcmFormatTag))
	binary.Write(w, binary.LittleEndian, uint16(channels))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(byteRate))
	binary.Write(w, binary.LittleEndian, uint16(blockAlign))
	binary.Write(w, binary.LittleEndian, uint16(bitsPerSampleLE))
	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, uint32(dataSize))

	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return err
	}
	return w.Flush()
}
