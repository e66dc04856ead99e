package dedup

import (
	"testing"
	"time"

	"stylus/internal/recognition"
	"stylus/internal/testsupport"
)

func track(artist, title string) recognition.Result {
	return recognition.Result{Success: true, Artist: artist, Title: title}
}

func newTestCache(t *testing.T, windowSeconds int) (*Cache, *time.Time) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Dedup.WindowSeconds = windowSeconds

	now := time.Unix(1700000000, 0)
	cache := New(cfg)
	cache.now = func() time.Time { return now }
	return cache, &now
}

func TestRepeatWithinWindowIsDuplicate(t *testing.T) {
	cache, now := newTestCache(t, 300)

	result := track("Miles Davis", "So What")
	if check := cache.IsDuplicate(result); check.IsDuplicate {
		t.Fatal("unseen track must not be a duplicate")
	}
	cache.AddTrack(result)

	*now = now.Add(90 * time.Second)
	check := cache.IsDuplicate(result)
	if !check.IsDuplicate {
		t.Fatal("repeat within window must be a duplicate")
	}
	if check.SinceLast != 90*time.Second {
		t.Fatalf("SinceLast = %v", check.SinceLast)
	}
	if check.Confidence != 1.0 {
		t.Fatalf("Confidence = %v", check.Confidence)
	}
}

func TestRepeatAfterWindowIsNotDuplicate(t *testing.T) {
	cache, now := newTestCache(t, 300)

	result := track("Miles Davis", "So What")
	cache.AddTrack(result)

	*now = now.Add(301 * time.Second)
	if check := cache.IsDuplicate(result); check.IsDuplicate {
		t.Fatal("repeat outside window must not be a duplicate")
	}
	if cache.Size() != 0 {
		t.Fatal("expired entry should be evicted on lookup")
	}
}

func TestLookupNormalizesCaseAndUnicodeForm(t *testing.T) {
	cache, _ := newTestCache(t, 300)

	cache.AddTrack(track("Miles Davis", "So What"))

	variants := []recognition.Result{
		track("MILES DAVIS", "so what"),
		track("  Miles Davis  ", "So What"),
		track("Ｍｉｌｅｓ Ｄａｖｉｓ", "So What"), // fullwidth forms
	}
	for _, variant := range variants {
		if !cache.IsDuplicate(variant).IsDuplicate {
			t.Fatalf("expected %q - %q to match cached track", variant.Artist, variant.Title)
		}
	}

	if cache.IsDuplicate(track("Miles Davis", "Freddie Freeloader")).IsDuplicate {
		t.Fatal("different title must not match")
	}
}

func TestTracksWithoutTagsAreNeverDuplicates(t *testing.T) {
	cache, _ := newTestCache(t, 300)

	untagged := recognition.Result{Success: true}
	cache.AddTrack(untagged)
	if cache.IsDuplicate(untagged).IsDuplicate {
		t.Fatal("untagged results must not collide with each other")
	}
	if cache.Size() != 0 {
		t.Fatal("untagged results must not be cached")
	}
}

func TestCleanupExpired(t *testing.T) {
	cache, now := newTestCache(t, 300)

	cache.AddTrack(track("Miles Davis", "So What"))
	*now = now.Add(200 * time.Second)
	cache.AddTrack(track("John Coltrane", "Giant Steps"))
	*now = now.Add(150 * time.Second)

	if removed := cache.CleanupExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry, removed %d", removed)
	}
	if cache.Size() != 1 {
		t.Fatalf("expected 1 live entry, got %d", cache.Size())
	}
}
