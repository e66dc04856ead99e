// Package pipeline connects the capture loop to recognition and delivery.
// Each finalized track is handed off to a detached goroutine so the capture
// loop never waits on the network.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"stylus/internal/artifact"
	"stylus/internal/capture"
	"stylus/internal/dedup"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/recognition"
	"stylus/internal/scrobble"
)

// Recognizer identifies a spooled recording and consumes it.
type Recognizer interface {
	Recognize(ctx context.Context, art *artifact.Artifact) recognition.Result
}

// DuplicateChecker suppresses repeat scrobbles of recently seen tracks.
type DuplicateChecker interface {
	IsDuplicate(result recognition.Result) dedup.Check
	AddTrack(result recognition.Result)
	CleanupExpired() int
}

// Stats counts pipeline outcomes since startup.
type Stats struct {
	TracksProcessed  int64
	TracksRecognized int64
	Duplicates       int64
	Scrobbled        int64
	Queued           int64
	Errors           int64
}

// Supervisor runs the per-track recognition and delivery task. In-flight
// tasks are not awaited on shutdown; a scrobble survives a crash only if it
// already reached the store.
type Supervisor struct {
	logger     *slog.Logger
	recognizer Recognizer
	duplicates DuplicateChecker
	deliverer  scrobble.Deliverer
	notifier   notifications.Service

	ctx context.Context

	processed  atomic.Int64
	recognized atomic.Int64
	duplicate  atomic.Int64
	scrobbled  atomic.Int64
	queued     atomic.Int64
	failures   atomic.Int64
}

// NewSupervisor wires the pipeline components together. The context bounds
// every spawned task.
func NewSupervisor(ctx context.Context, logger *slog.Logger, recognizer Recognizer, duplicates DuplicateChecker, deliverer scrobble.Deliverer, notifier notifications.Service) *Supervisor {
	return &Supervisor{
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		recognizer: recognizer,
		duplicates: duplicates,
		deliverer:  deliverer,
		notifier:   notifier,
		ctx:        ctx,
	}
}

// Sink returns the hand-off hook for the segmenter. It spawns the track task
// and returns immediately.
func (s *Supervisor) Sink() capture.TrackSink {
	return func(art *artifact.Artifact) {
		go s.process(art)
	}
}

func (s *Supervisor) process(art *artifact.Artifact) {
	s.processed.Add(1)

	result := s.recognizer.Recognize(s.ctx, art)
	if !result.Success {
		s.failures.Add(1)
		if err := s.notifier.NotifyRecognitionFailed(s.ctx, result.ErrorMessage); err != nil {
			s.logger.Debug("notification failed", logging.Error(err))
		}
		return
	}
	s.recognized.Add(1)

	if check := s.duplicates.IsDuplicate(result); check.IsDuplicate {
		s.duplicate.Add(1)
		s.logger.Info("duplicate track, skipping scrobble",
			logging.String(logging.FieldTrack, result.Track()),
			logging.Duration("since_last", check.SinceLast.Round(time.Second)))
		return
	}

	outcome, err := s.deliverer.Deliver(s.ctx, result, time.Now())
	switch outcome {
	case scrobble.OutcomeSuccess:
		s.scrobbled.Add(1)
		s.duplicates.AddTrack(result)
		if notifyErr := s.notifier.NotifyTrackScrobbled(s.ctx, result.Track(), result.Provider, result.Confidence); notifyErr != nil {
			s.logger.Debug("notification failed", logging.Error(notifyErr))
		}
	case scrobble.OutcomeQueued:
		s.queued.Add(1)
		s.duplicates.AddTrack(result)
		if notifyErr := s.notifier.NotifyTrackQueued(s.ctx, result.Track()); notifyErr != nil {
			s.logger.Debug("notification failed", logging.Error(notifyErr))
		}
	case scrobble.OutcomeDisabled:
		s.logger.Debug("scrobble backend disabled, dropping track",
			logging.String(logging.FieldTrack, result.Track()))
	default:
		s.failures.Add(1)
		s.logger.Error("scrobble delivery failed",
			logging.String(logging.FieldTrack, result.Track()),
			logging.Error(err))
		if notifyErr := s.notifier.NotifyError(s.ctx, err, "scrobble delivery"); notifyErr != nil {
			s.logger.Debug("notification failed", logging.Error(notifyErr))
		}
	}
}

// StartMaintenance launches a periodic sweep of the duplicate cache.
// Lookups only evict the entry they hit, so without the sweep entries for
// tracks never played again would sit in memory for the life of the daemon.
func (s *Supervisor) StartMaintenance(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.duplicates.CleanupExpired(); removed > 0 {
					s.logger.Debug("expired duplicate cache entries removed",
						logging.Int("count", removed))
				}
			}
		}
	}()
}

// Stats returns a snapshot of pipeline counters.
func (s *Supervisor) Stats() Stats {
	return Stats{
		TracksProcessed:  s.processed.Load(),
		TracksRecognized: s.recognized.Load(),
		Duplicates:       s.duplicate.Load(),
		Scrobbled:        s.scrobbled.Load(),
		Queued:           s.queued.Load(),
		Errors:           s.failures.Load(),
	}
}
