package scrobble_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stylus/internal/history"
	"stylus/internal/logging"
	"stylus/internal/scrobble"
	"stylus/internal/testsupport"
)

func queuedEntry(artist, title string) history.Entry {
	return history.Entry{
		Artist:   artist,
		Title:    title,
		PlayedAt: time.Now().Unix(),
		Duration: 240,
	}
}

func TestFlushDrainsQueueOnSuccess(t *testing.T) {
	accepted := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepted++
		w.Write([]byte(`{"status": "success"}`))
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithMaloja(server.URL, "key"))
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, server.Client())
	flusher := scrobble.NewFlusher(cfg, logging.NewNop(), store, backend)

	ctx := context.Background()
	for _, entry := range []history.Entry{
		queuedEntry("Miles Davis", "So What"),
		queuedEntry("John Coltrane", "Giant Steps"),
	} {
		if _, err := store.AddToQueue(ctx, entry, ""); err != nil {
			t.Fatalf("AddToQueue failed: %v", err)
		}
	}

	if delivered := flusher.Flush(ctx); delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", delivered)
	}
	if accepted != 2 {
		t.Fatalf("expected 2 requests, got %d", accepted)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.QueueDepth != 0 {
		t.Fatalf("queue should be empty, depth %d", stats.QueueDepth)
	}
	if stats.HistoryTotal != 2 {
		t.Fatalf("redelivered scrobbles should land in history, got %d", stats.HistoryTotal)
	}
}

func TestFlushKeepsFailedItemsWithAttemptCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithMaloja(server.URL, "key"))
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, server.Client())
	flusher := scrobble.NewFlusher(cfg, logging.NewNop(), store, backend)

	ctx := context.Background()
	if _, err := store.AddToQueue(ctx, queuedEntry("Miles Davis", "So What"), ""); err != nil {
		t.Fatalf("AddToQueue failed: %v", err)
	}

	if delivered := flusher.Flush(ctx); delivered != 0 {
		t.Fatalf("expected 0 delivered, got %d", delivered)
	}

	queue, err := store.ListQueue(ctx)
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("failed item must stay queued, got %d items", len(queue))
	}
	if queue[0].Attempts != 1 {
		t.Fatalf("expected 1 attempt recorded, got %d", queue[0].Attempts)
	}
	if queue[0].LastError == "" {
		t.Fatal("expected last error recorded")
	}
}

func TestFlushSkipsUnconfiguredBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, nil)
	flusher := scrobble.NewFlusher(cfg, logging.NewNop(), store, backend)

	ctx := context.Background()
	if _, err := store.AddToQueue(ctx, queuedEntry("Miles Davis", "So What"), ""); err != nil {
		t.Fatalf("AddToQueue failed: %v", err)
	}

	if delivered := flusher.Flush(ctx); delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
	queue, _ := store.ListQueue(ctx)
	if len(queue) != 1 {
		t.Fatal("queue must be untouched while the backend is unconfigured")
	}
}

func TestFlusherStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scrobble.RetryInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, nil)
	flusher := scrobble.NewFlusher(cfg, logging.NewNop(), store, backend)

	flusher.Start(context.Background())
	flusher.Start(context.Background())
	flusher.Stop()
	flusher.Stop()
}
