package scrobble

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stylus/internal/config"
	"stylus/internal/history"
	"stylus/internal/logging"
)

// Redeliverer retries a queued scrobble against the backend.
type Redeliverer interface {
	Available() bool
	Redeliver(ctx context.Context, item *history.QueueItem) error
}

// Flusher periodically drains the retry queue, oldest entries first.
// Successful redeliveries leave the queue; failures stay with an updated
// attempt count.
type Flusher struct {
	logger    *slog.Logger
	store     *history.Store
	backend   Redeliverer
	interval  time.Duration
	batchSize int

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewFlusher builds a flusher over the given backend.
func NewFlusher(cfg *config.Config, logger *slog.Logger, store *history.Store, backend Redeliverer) *Flusher {
	return &Flusher{
		logger:    logging.NewComponentLogger(logger, "flusher"),
		store:     store,
		backend:   backend,
		interval:  time.Duration(cfg.Scrobble.RetryInterval) * time.Second,
		batchSize: cfg.Scrobble.RetryBatchSize,
	}
}

// Start launches the background retry loop.
func (f *Flusher) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.running = true

	go func() {
		defer close(f.done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				f.Flush(runCtx)
			}
		}
	}()
}

// Stop halts the retry loop and waits for the current pass to finish.
func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.cancel()
	<-f.done
	f.running = false
}

// Flush runs one redelivery pass and reports how many queued scrobbles were
// delivered.
func (f *Flusher) Flush(ctx context.Context) int {
	if !f.backend.Available() {
		return 0
	}

	items, err := f.store.QueueBatch(ctx, f.batchSize)
	if err != nil {
		f.logger.Error("failed to load retry queue", logging.Error(err))
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	f.logger.Info("retrying queued scrobbles", logging.Int("count", len(items)))

	delivered := 0
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := f.backend.Redeliver(ctx, item); err != nil {
			f.logger.Debug("redelivery failed",
				logging.String(logging.FieldTrack, item.Entry.Artist+" - "+item.Entry.Title),
				logging.Int("attempts", item.Attempts+1),
				logging.Error(err))
			if markErr := f.store.MarkAttempt(ctx, item.ID, err.Error()); markErr != nil {
				f.logger.Error("failed to update queue item", logging.Error(markErr))
			}
			continue
		}
		if _, err := f.store.RemoveFromQueue(ctx, item.ID); err != nil {
			f.logger.Error("failed to remove delivered queue item", logging.Error(err))
			continue
		}
		delivered++
	}

	if delivered > 0 {
		f.logger.Info("flushed queued scrobbles", logging.Int("delivered", delivered))
	}
	return delivered
}
