package scrobble_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stylus/internal/history"
	"stylus/internal/logging"
	"stylus/internal/recognition"
	"stylus/internal/scrobble"
	"stylus/internal/testsupport"
)

func identifiedTrack() recognition.Result {
	return recognition.Result{
		Success:    true,
		Confidence: 0.9,
		Provider:   "audd",
		Artist:     "Miles Davis",
		Title:      "So What",
		Album:      "Kind of Blue",
		Duration:   545,
	}
}

func newBackend(t *testing.T, handler http.HandlerFunc) (*scrobble.Maloja, *history.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithMaloja(server.URL, "maloja-key"))
	store := testsupport.MustOpenStore(t, cfg)
	return scrobble.NewMaloja(cfg, logging.NewNop(), store, server.Client()), store
}

func TestDeliverSuccessWritesHistory(t *testing.T) {
	playedAt := time.Unix(1700000000, 0)
	backend, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/newscrobble") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if artists, ok := body["artists"].([]any); !ok || len(artists) != 1 || artists[0] != "Miles Davis" {
			t.Errorf("artists = %v", body["artists"])
		}
		if body["title"] != "So What" || body["album"] != "Kind of Blue" {
			t.Errorf("unexpected track fields: %v", body)
		}
		if body["apikey"] != "maloja-key" {
			t.Errorf("apikey = %v", body["apikey"])
		}
		if body["time"] != float64(playedAt.Unix()) {
			t.Errorf("time = %v", body["time"])
		}
		w.Write([]byte(`{"status": "success"}`))
	})

	outcome, err := backend.Deliver(context.Background(), identifiedTrack(), playedAt)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if outcome != scrobble.OutcomeSuccess {
		t.Fatalf("outcome = %q", outcome)
	}

	records, err := store.ListHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	if records[0].Entry.Artist != "Miles Davis" || records[0].Entry.PlayedAt != playedAt.Unix() {
		t.Fatalf("unexpected history entry: %+v", records[0].Entry)
	}
	if records[0].Source != "maloja" || records[0].Confidence != 0.9 {
		t.Fatalf("unexpected provenance: %+v", records[0])
	}

	queue, err := store.ListQueue(context.Background())
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(queue))
	}
}

func TestDeliverQueuesOnServerRejection(t *testing.T) {
	backend, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "failure", "desc": "invalid key"}`))
	})

	outcome, err := backend.Deliver(context.Background(), identifiedTrack(), time.Now())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if outcome != scrobble.OutcomeQueued {
		t.Fatalf("outcome = %q", outcome)
	}

	queue, err := store.ListQueue(context.Background())
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected one queued item, got %d", len(queue))
	}
	if !strings.Contains(queue[0].Metadata, "invalid key") {
		t.Fatalf("metadata should carry the server response, got %q", queue[0].Metadata)
	}
	if strings.Contains(queue[0].Metadata, "maloja-key") {
		t.Fatal("metadata must not leak the api key")
	}
}

func TestDeliverQueuesOnHTTPError(t *testing.T) {
	backend, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	outcome, err := backend.Deliver(context.Background(), identifiedTrack(), time.Now())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if outcome != scrobble.OutcomeQueued {
		t.Fatalf("outcome = %q", outcome)
	}
	queue, _ := store.ListQueue(context.Background())
	if len(queue) != 1 {
		t.Fatalf("expected one queued item, got %d", len(queue))
	}
}

func TestDeliverQueuesOnNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithMaloja(serverURL, ""))
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, nil)

	outcome, err := backend.Deliver(context.Background(), identifiedTrack(), time.Now())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if outcome != scrobble.OutcomeQueued {
		t.Fatalf("outcome = %q", outcome)
	}
	queue, _ := store.ListQueue(context.Background())
	if len(queue) != 1 || !strings.Contains(queue[0].Metadata, "error") {
		t.Fatalf("expected queued item with error metadata, got %+v", queue)
	}
}

func TestDeliverRejectsInvalidResult(t *testing.T) {
	called := false
	backend, store := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, result := range []recognition.Result{
		{Success: false},
		{Success: true, Title: "So What"},
		{Success: true, Artist: "Miles Davis"},
	} {
		outcome, err := backend.Deliver(context.Background(), result, time.Now())
		if outcome != scrobble.OutcomeError || err == nil {
			t.Fatalf("expected error outcome for %+v, got %q err %v", result, outcome, err)
		}
	}
	if called {
		t.Fatal("invalid results must not reach the network")
	}
	queue, _ := store.ListQueue(context.Background())
	if len(queue) != 0 {
		t.Fatal("invalid results must not be queued")
	}
}

func TestDeliverDisabledWithoutSideEffects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	backend := scrobble.NewMaloja(cfg, logging.NewNop(), store, nil)

	outcome, err := backend.Deliver(context.Background(), identifiedTrack(), time.Now())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if outcome != scrobble.OutcomeDisabled {
		t.Fatalf("outcome = %q", outcome)
	}

	stats, err := store.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.HistoryTotal != 0 || stats.QueueDepth != 0 {
		t.Fatalf("disabled backend must not persist anything: %+v", stats)
	}
}

func TestDeliverDefaultsPlayedAtToNow(t *testing.T) {
	var gotTime float64
	backend, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotTime, _ = body["time"].(float64)
		w.Write([]byte(`{"status": "ok"}`))
	})

	before := time.Now().Unix()
	if _, err := backend.Deliver(context.Background(), identifiedTrack(), time.Time{}); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	after := time.Now().Unix()

	if int64(gotTime) < before || int64(gotTime) > after {
		t.Fatalf("expected current timestamp, got %v", gotTime)
	}
}
