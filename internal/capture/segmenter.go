package capture

import (
	"log/slog"
	"sync"
	"time"

	"stylus/internal/artifact"
	"stylus/internal/config"
	"stylus/internal/logging"
)

// TrackSink receives ownership of a finalized artifact. Implementations must
// dispatch work elsewhere and return immediately; the segmenter invokes the
// sink from the capture loop.
type TrackSink func(*artifact.Artifact)

// Segmenter turns the continuous frame stream into discrete track buffers.
//
// It holds two states: silent (no active recording) and recording (buffer
// accumulating). A single mutex guards all segmenter state for the duration
// of one frame; only the capture loop writes it, so contention is negligible.
type Segmenter struct {
	logger *slog.Logger
	sink   TrackSink

	sampleRate int
	channels   int
	spoolDir   string

	silenceThreshold float64
	silenceWindow    time.Duration
	minRecording     time.Duration
	maxRecording     time.Duration

	mu           sync.Mutex
	recording    bool
	buffer       []int16
	silenceStart time.Time
	musicStart   time.Time
	lastTrackEnd time.Time
}

// Snapshot reports segmenter state for status output.
type Snapshot struct {
	Recording      bool
	BufferSeconds  float64
	MusicDetected  bool
	SilenceSeconds float64
}

// NewSegmenter builds a segmenter from detection configuration.
func NewSegmenter(cfg *config.Config, logger *slog.Logger, sink TrackSink) *Segmenter {
	return &Segmenter{
		logger:           logging.NewComponentLogger(logger, "segmenter"),
		sink:             sink,
		sampleRate:       cfg.Audio.SampleRate,
		channels:         cfg.Audio.Channels,
		spoolDir:         cfg.Paths.SpoolDir,
		silenceThreshold: cfg.Detection.SilenceThreshold,
		silenceWindow:    cfg.SilenceWindow(),
		minRecording:     cfg.MinRecording(),
		maxRecording:     cfg.MaxRecording(),
	}
}

// ProcessFrame classifies one frame as silence or music and advances the
// boundary state machine.
func (s *Segmenter) ProcessFrame(frame Frame) {
	level := Level(frame.Samples)

	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.silenceThreshold {
		s.handleSilence(frame.At)
	} else {
		s.handleMusic(frame)
	}
}

func (s *Segmenter) handleSilence(now time.Time) {
	if s.silenceStart.IsZero() {
		s.silenceStart = now
	}

	if s.recording && now.Sub(s.silenceStart) >= s.silenceWindow && len(s.buffer) > 0 {
		s.finalize(now)
		s.recording = false
	}

	s.musicStart = time.Time{}
}

func (s *Segmenter) handleMusic(frame Frame) {
	now := frame.At
	s.silenceStart = time.Time{}

	if s.musicStart.IsZero() {
		s.musicStart = now
		if now.Sub(s.lastTrackEnd) > s.silenceWindow {
			s.startRecording()
		}
	}

	if !s.recording {
		return
	}

	s.buffer = append(s.buffer, frame.Samples...)

	// Stuck-needle guard: continuous undetected silence must not grow the
	// buffer without bound. A forced finalize keeps recording so the next
	// buffer begins accumulating without waiting for a silence gap.
	if s.bufferDuration() >= s.maxRecording {
		s.logger.Warn("recording exceeded maximum duration, finalizing early",
			logging.Duration("max", s.maxRecording))
		s.finalize(now)
	}
}

func (s *Segmenter) startRecording() {
	if s.recording {
		return
	}
	s.recording = true
	s.buffer = s.buffer[:0]
	s.logger.Info("started recording new track")
}

// finalize closes out the active buffer: short buffers are discarded
// silently, everything else is spooled and handed to the sink. Callers hold
// the mutex.
func (s *Segmenter) finalize(now time.Time) {
	duration := s.bufferDuration()
	s.lastTrackEnd = now

	if duration < s.minRecording {
		s.logger.Debug("recording too short, discarding",
			logging.Duration("duration", duration),
			logging.Duration("minimum", s.minRecording))
		s.buffer = s.buffer[:0]
		return
	}

	art, err := artifact.Spool(s.spoolDir, s.buffer, s.sampleRate, s.channels)
	s.buffer = s.buffer[:0]
	if err != nil {
		s.logger.Error("failed to spool recording", logging.Error(err))
		return
	}

	s.logger.Info("finished recording, handing off for recognition",
		logging.Duration("duration", duration),
		logging.String(logging.FieldArtifact, art.ID))

	if s.sink != nil {
		s.sink(art)
	}
}

func (s *Segmenter) bufferDuration() time.Duration {
	seconds := float64(len(s.buffer)) / float64(s.sampleRate*s.channels)
	return time.Duration(seconds * float64(time.Second))
}

// Status returns a point-in-time snapshot of segmenter state.
func (s *Segmenter) Status(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		Recording:     s.recording,
		BufferSeconds: s.bufferDuration().Seconds(),
		MusicDetected: !s.musicStart.IsZero(),
	}
	if !s.silenceStart.IsZero() {
		snapshot.SilenceSeconds = now.Sub(s.silenceStart).Seconds()
	}
	return snapshot
}
