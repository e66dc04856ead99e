package history_test

import (
	"context"
	"testing"
	"time"

	"stylus/internal/history"
	"stylus/internal/testsupport"
)

func TestAddToHistoryAndList(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	ctx := context.Background()
	entry := history.Entry{
		Artist:   "Miles Davis",
		Title:    "So What",
		Album:    "Kind of Blue",
		PlayedAt: time.Now().Unix(),
		Duration: 545,
	}
	id, err := store.AddToHistory(ctx, entry, "maloja", 0.9, `{"status":"success"}`)
	if err != nil {
		t.Fatalf("AddToHistory failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected assigned id")
	}

	records, err := store.ListHistory(ctx, 10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Entry.Artist != entry.Artist || rec.Entry.Title != entry.Title || rec.Entry.Album != entry.Album {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.Source != "maloja" || rec.Confidence != 0.9 {
		t.Fatalf("unexpected source/confidence: %#v", rec)
	}
}

func TestAddToHistoryRequiresArtistAndTitle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	if _, err := store.AddToHistory(context.Background(), history.Entry{Title: "Untitled"}, "maloja", 1, ""); err == nil {
		t.Fatal("expected error for missing artist")
	}
}

func TestQueueLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	ctx := context.Background()
	entry := history.Entry{Artist: "Can", Title: "Vitamin C", PlayedAt: 1700000000}
	id, err := store.AddToQueue(ctx, entry, `{"payload":{"title":"Vitamin C"},"error":"timeout"}`)
	if err != nil {
		t.Fatalf("AddToQueue failed: %v", err)
	}

	items, err := store.QueueBatch(ctx, 10)
	if err != nil {
		t.Fatalf("QueueBatch failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("unexpected batch: %#v", items)
	}
	if items[0].Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", items[0].Attempts)
	}

	if err := store.MarkAttempt(ctx, id, "connection refused"); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}
	items, err = store.QueueBatch(ctx, 10)
	if err != nil {
		t.Fatalf("QueueBatch failed: %v", err)
	}
	if items[0].Attempts != 1 || items[0].LastError != "connection refused" {
		t.Fatalf("expected recorded attempt, got %#v", items[0])
	}
	if items[0].LastAttemptAt == nil {
		t.Fatal("expected last attempt timestamp")
	}

	removed, err := store.RemoveFromQueue(ctx, id)
	if err != nil || !removed {
		t.Fatalf("RemoveFromQueue failed: removed=%v err=%v", removed, err)
	}
	removed, err = store.RemoveFromQueue(ctx, id)
	if err != nil {
		t.Fatalf("RemoveFromQueue second call failed: %v", err)
	}
	if removed {
		t.Fatal("expected second removal to be a no-op")
	}
}

func TestQueueBatchOrdersOldestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	ctx := context.Background()
	for _, title := range []string{"First", "Second", "Third"} {
		if _, err := store.AddToQueue(ctx, history.Entry{Artist: "A", Title: title, PlayedAt: 1}, ""); err != nil {
			t.Fatalf("AddToQueue failed: %v", err)
		}
	}

	items, err := store.QueueBatch(ctx, 2)
	if err != nil {
		t.Fatalf("QueueBatch failed: %v", err)
	}
	if len(items) != 2 || items[0].Entry.Title != "First" || items[1].Entry.Title != "Second" {
		t.Fatalf("unexpected ordering: %#v", items)
	}
}

func TestGetStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	ctx := context.Background()
	if _, err := store.AddToHistory(ctx, history.Entry{Artist: "A", Title: "T", PlayedAt: 1}, "maloja", 1, ""); err != nil {
		t.Fatalf("AddToHistory failed: %v", err)
	}
	if _, err := store.AddToQueue(ctx, history.Entry{Artist: "B", Title: "U", PlayedAt: 2}, ""); err != nil {
		t.Fatalf("AddToQueue failed: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.HistoryTotal != 1 || stats.QueueDepth != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestClearQueue(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.AddToQueue(ctx, history.Entry{Artist: "A", Title: "T", PlayedAt: int64(i)}, ""); err != nil {
			t.Fatalf("AddToQueue failed: %v", err)
		}
	}
	count, err := store.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 cleared, got %d", count)
	}
}
