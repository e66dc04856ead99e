package history

import "time"

// Entry is a normalized play event derived from a successful recognition.
// Entries are immutable once constructed.
type Entry struct {
	Artist   string
	Title    string
	Album    string
	PlayedAt int64 // unix seconds
	Duration int   // seconds, 0 when unknown
}

// Record is a delivered scrobble persisted in history.
type Record struct {
	ID         int64
	Entry      Entry
	Source     string
	Confidence float64
	Metadata   string
	CreatedAt  time.Time
}

// QueueItem is a deferred delivery awaiting redelivery.
type QueueItem struct {
	ID            int64
	Entry         Entry
	Metadata      string
	Attempts      int
	LastAttemptAt *time.Time
	LastError     string
	CreatedAt     time.Time
}

// Stats aggregates store counts for diagnostics.
type Stats struct {
	HistoryTotal int
	QueueDepth   int
}
