package audd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stylus/internal/config"
)

func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}
	return path
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Recognition.AudD.Enabled = true
	cfg.Recognition.AudD.APIURL = server.URL
	cfg.Recognition.AudD.APIToken = "test-token"
	return New(&cfg, server.Client())
}

func TestRecognizeParsesMatch(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if got := r.FormValue("api_token"); got != "test-token" {
			t.Errorf("api_token = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		w.Write([]byte(`{
			"status": "success",
			"result": {
				"artist": "Miles Davis",
				"title": "So What",
				"album": "Kind of Blue",
				"release_date": "1959-08-17"
			}
		}`))
	})

	result, err := provider.Recognize(context.Background(), writeRecording(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Artist != "Miles Davis" || result.Title != "So What" || result.Album != "Kind of Blue" {
		t.Fatalf("unexpected metadata: %+v", result)
	}
	if result.Year != 1959 {
		t.Fatalf("expected year 1959, got %d", result.Year)
	}
	if result.Confidence != 0.8 {
		t.Fatalf("expected base confidence 0.8, got %v", result.Confidence)
	}
}

func TestRecognizeRaisesConfidenceForCatalogedTracks(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"result": {
				"artist": "Miles Davis",
				"title": "So What",
				"spotify": {"id": "abc123"}
			}
		}`))
	})

	result, err := provider.Recognize(context.Background(), writeRecording(t))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Confidence != 0.9 {
		t.Fatalf("expected catalog confidence 0.9, got %v", result.Confidence)
	}
}

func TestRecognizeNoMatch(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "result": null}`))
	})

	result, err := provider.Recognize(context.Background(), writeRecording(t))
	if err != nil {
		t.Fatalf("a clean miss is not an error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.ErrorMessage == "" {
		t.Fatal("expected a miss explanation")
	}
}

func TestRecognizeReportsAPIError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := provider.Recognize(context.Background(), writeRecording(t)); err == nil {
		t.Fatal("expected HTTP failure to surface as error")
	}
}

func TestAvailableRequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.AudD.Enabled = true
	cfg.Recognition.AudD.APIToken = ""
	if New(&cfg, nil).Available() {
		t.Fatal("provider without token must be unavailable")
	}

	cfg.Recognition.AudD.APIToken = "x"
	cfg.Recognition.AudD.Enabled = false
	if New(&cfg, nil).Available() {
		t.Fatal("disabled provider must be unavailable")
	}
}
