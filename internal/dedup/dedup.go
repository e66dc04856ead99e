// Package dedup suppresses repeat scrobbles of the same track within a
// configured window. Skips and stylus bounce-back can make the segmenter
// emit the same track twice in quick succession.
package dedup

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"stylus/internal/config"
	"stylus/internal/recognition"
)

// Check is the outcome of a duplicate lookup.
type Check struct {
	IsDuplicate bool
	SinceLast   time.Duration
	Confidence  float64
}

// Cache remembers recently scrobbled tracks keyed by normalized
// artist/title.
type Cache struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// New builds a cache with the configured suppression window.
func New(cfg *config.Config) *Cache {
	return &Cache{
		window: time.Duration(cfg.Dedup.WindowSeconds) * time.Second,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// IsDuplicate reports whether the track was seen within the window.
func (c *Cache) IsDuplicate(result recognition.Result) Check {
	key := trackKey(result)
	if key == "" {
		return Check{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.seen[key]
	if !ok {
		return Check{}
	}
	elapsed := c.now().Sub(last)
	if elapsed >= c.window {
		delete(c.seen, key)
		return Check{}
	}
	return Check{IsDuplicate: true, SinceLast: elapsed, Confidence: 1.0}
}

// AddTrack records the track as just scrobbled.
func (c *Cache) AddTrack(result recognition.Result) {
	key := trackKey(result)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key] = c.now()
}

// CleanupExpired drops entries older than the window and reports how many
// were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := c.now().Add(-c.window)
	for key, last := range c.seen {
		if last.Before(cutoff) {
			delete(c.seen, key)
			removed++
		}
	}
	return removed
}

// Size reports the number of cached tracks.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// trackKey builds a normalized lookup key so case and Unicode form
// variations of the same tag text collide.
func trackKey(result recognition.Result) string {
	artist := normalizeTag(result.Artist)
	title := normalizeTag(result.Title)
	if artist == "" || title == "" {
		return ""
	}
	return artist + "\x00" + title
}

func normalizeTag(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	// Casers are stateful, so build one per call.
	return cases.Fold().String(norm.NFKC.String(value))
}
