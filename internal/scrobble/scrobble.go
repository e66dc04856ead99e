// Package scrobble delivers identified tracks to a scrobble backend. A
// failed delivery is never dropped: it lands in the durable retry queue and
// the flusher redelivers it later.
package scrobble

import (
	"context"
	"time"

	"stylus/internal/recognition"
)

// Outcome classifies one delivery attempt.
type Outcome string

const (
	// OutcomeSuccess means the backend accepted the scrobble and it was
	// written to history.
	OutcomeSuccess Outcome = "success"
	// OutcomeQueued means the attempt failed and the scrobble was written
	// to the retry queue.
	OutcomeQueued Outcome = "queued"
	// OutcomeDisabled means the backend is not configured; nothing was
	// attempted or persisted.
	OutcomeDisabled Outcome = "disabled"
	// OutcomeError means the result was not deliverable at all.
	OutcomeError Outcome = "error"
)

// Deliverer attempts an immediate scrobble delivery. Implementations queue
// failed attempts themselves; callers only inspect the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, result recognition.Result, playedAt time.Time) (Outcome, error)
}
