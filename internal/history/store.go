package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stylus/internal/config"
)

// Store manages scrobble history and the retry queue backed by SQLite.
//
// AddToHistory and AddToQueue commit before returning; a crash immediately
// after a successful call never loses the row.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "stylus.db"))
}

// OpenPath opens a store at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// AddToHistory records a delivered scrobble.
func (s *Store) AddToHistory(ctx context.Context, entry Entry, source string, confidence float64, metadata string) (int64, error) {
	if entry.Artist == "" || entry.Title == "" {
		return 0, errors.New("entry requires artist and title")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scrobble_history (
            artist, title, album, played_at, duration, source, confidence, metadata_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Artist,
		entry.Title,
		nullableString(entry.Album),
		entry.PlayedAt,
		nullableInt(entry.Duration),
		source,
		confidence,
		nullableString(metadata),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return res.LastInsertId()
}

// ListHistory returns the most recent history records, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, artist, title, album, played_at, duration, source, confidence, metadata_json, created_at
         FROM scrobble_history ORDER BY played_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec       Record
			album     sql.NullString
			duration  sql.NullInt64
			metadata  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Entry.Artist, &rec.Entry.Title, &album, &rec.Entry.PlayedAt,
			&duration, &rec.Source, &rec.Confidence, &metadata, &createdAt); err != nil {
			return nil, err
		}
		rec.Entry.Album = album.String
		rec.Entry.Duration = int(duration.Int64)
		rec.Metadata = metadata.String
		if created, err := parseTimeString(createdAt); err == nil {
			rec.CreatedAt = created
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// AddToQueue appends a failed delivery for later retry.
func (s *Store) AddToQueue(ctx context.Context, entry Entry, metadata string) (int64, error) {
	if entry.Artist == "" || entry.Title == "" {
		return 0, errors.New("entry requires artist and title")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scrobble_queue (
            artist, title, album, played_at, duration, metadata_json, attempts, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		entry.Artist,
		entry.Title,
		nullableString(entry.Album),
		entry.PlayedAt,
		nullableInt(entry.Duration),
		nullableString(metadata),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert queue item: %w", err)
	}
	return res.LastInsertId()
}

// QueueBatch returns the oldest queued deliveries up to limit.
func (s *Store) QueueBatch(ctx context.Context, limit int) ([]*QueueItem, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+queueColumns+` FROM scrobble_queue ORDER BY created_at, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("queue batch: %w", err)
	}
	defer rows.Close()
	return scanQueueItems(rows)
}

// ListQueue returns every queued delivery, oldest first.
func (s *Store) ListQueue(ctx context.Context) ([]*QueueItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM scrobble_queue ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()
	return scanQueueItems(rows)
}

// MarkAttempt records a failed redelivery attempt against a queue item.
func (s *Store) MarkAttempt(ctx context.Context, id int64, attemptErr string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE scrobble_queue SET attempts = attempts + 1, last_attempt_at = ?, last_error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableString(attemptErr),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark attempt: %w", err)
	}
	return nil
}

// RemoveFromQueue deletes a queue item after successful redelivery.
func (s *Store) RemoveFromQueue(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scrobble_queue WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete queue item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearQueue removes all queued deliveries.
func (s *Store) ClearQueue(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scrobble_queue`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// GetStats returns aggregated store counts.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scrobble_history`).Scan(&stats.HistoryTotal); err != nil {
		return stats, fmt.Errorf("count history: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scrobble_queue`).Scan(&stats.QueueDepth); err != nil {
		return stats, fmt.Errorf("count queue: %w", err)
	}
	return stats, nil
}

const queueColumns = "id, artist, title, album, played_at, duration, metadata_json, attempts, last_attempt_at, last_error, created_at"

func scanQueueItems(rows *sql.Rows) ([]*QueueItem, error) {
	var items []*QueueItem
	for rows.Next() {
		var (
			item        QueueItem
			album       sql.NullString
			duration    sql.NullInt64
			metadata    sql.NullString
			lastAttempt sql.NullString
			lastError   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&item.ID, &item.Entry.Artist, &item.Entry.Title, &album, &item.Entry.PlayedAt,
			&duration, &metadata, &item.Attempts, &lastAttempt, &lastError, &createdAt); err != nil {
			return nil, err
		}
		item.Entry.Album = album.String
		item.Entry.Duration = int(duration.Int64)
		item.Metadata = metadata.String
		item.LastError = lastError.String
		if lastAttempt.Valid {
			if attempt, err := parseTimeString(lastAttempt.String); err == nil {
				item.LastAttemptAt = &attempt
			}
		}
		if created, err := parseTimeString(createdAt); err == nil {
			item.CreatedAt = created
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
