package recognition

import (
	"context"
	"errors"
	"os"
	"testing"

	"stylus/internal/artifact"
	"stylus/internal/config"
	"stylus/internal/logging"
)

type fakeProvider struct {
	name      string
	available bool
	result    Result
	err       error
	calls     int
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) Recognize(context.Context, string) (Result, error) {
	p.calls++
	return p.result, p.err
}

func identified(name string, confidence float64) Result {
	return Result{
		Success:    true,
		Confidence: confidence,
		Provider:   name,
		Artist:     "Test Artist",
		Title:      "Test Title",
	}
}

func newTestOrchestrator(t *testing.T, providers ...Provider) (*Orchestrator, *artifact.Artifact) {
	t.Helper()
	cfg := config.Default()
	art, err := artifact.Spool(t.TempDir(), make([]int16, 441), 44100, 1)
	if err != nil {
		t.Fatalf("failed to spool artifact: %v", err)
	}
	return NewOrchestrator(&cfg, logging.NewNop(), providers), art
}

func TestRecognizeShortCircuitsAtThreshold(t *testing.T) {
	first := &fakeProvider{name: "audd", available: true, result: identified("audd", 0.9)}
	second := &fakeProvider{name: "acoustid", available: true, result: identified("acoustid", 0.95)}
	orch, art := newTestOrchestrator(t, first, second)

	result := orch.Recognize(context.Background(), art)

	if !result.Success || result.Provider != "audd" {
		t.Fatalf("expected first provider to win, got %+v", result)
	}
	if second.calls != 0 {
		t.Fatal("second provider must not be queried after a confident match")
	}
}

func TestRecognizeSkipsUnavailableProviders(t *testing.T) {
	first := &fakeProvider{name: "audd", available: false, result: identified("audd", 0.9)}
	second := &fakeProvider{name: "acoustid", available: true, result: identified("acoustid", 0.7)}
	orch, art := newTestOrchestrator(t, first, second)

	result := orch.Recognize(context.Background(), art)

	if first.calls != 0 {
		t.Fatal("unconfigured provider must not be queried")
	}
	if result.Provider != "acoustid" {
		t.Fatalf("expected fallback to second provider, got %+v", result)
	}
}

func TestRecognizeContinuesPastProviderError(t *testing.T) {
	first := &fakeProvider{name: "audd", available: true, err: errors.New("api unreachable")}
	second := &fakeProvider{name: "acoustid", available: true, result: identified("acoustid", 0.8)}
	orch, art := newTestOrchestrator(t, first, second)

	result := orch.Recognize(context.Background(), art)

	if !result.Success || result.Provider != "acoustid" {
		t.Fatalf("expected second provider to recover, got %+v", result)
	}
}

func TestRecognizeReturnsBestBelowThreshold(t *testing.T) {
	first := &fakeProvider{name: "audd", available: true, result: identified("audd", 0.3)}
	second := &fakeProvider{name: "acoustid", available: true, result: identified("acoustid", 0.5)}
	orch, art := newTestOrchestrator(t, first, second)

	result := orch.Recognize(context.Background(), art)

	if !result.Success {
		t.Fatalf("expected best effort identification, got %+v", result)
	}
	if result.Provider != "acoustid" || result.Confidence != 0.5 {
		t.Fatalf("expected highest confidence result, got %+v", result)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatal("all providers should be consulted before settling")
	}
}

func TestRecognizeFailsWhenAllProvidersFail(t *testing.T) {
	first := &fakeProvider{name: "audd", available: true, err: errors.New("api unreachable")}
	second := &fakeProvider{name: "acoustid", available: true, result: Result{Provider: "acoustid"}}
	orch, art := newTestOrchestrator(t, first, second)

	result := orch.Recognize(context.Background(), art)

	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Provider != "none" {
		t.Fatalf("failed runs carry provider none, got %q", result.Provider)
	}
	if result.ErrorMessage == "" {
		t.Fatal("expected an error message on failure")
	}
}

func TestRecognizeAlwaysRemovesRecording(t *testing.T) {
	cases := []struct {
		name     string
		provider *fakeProvider
	}{
		{"confident match", &fakeProvider{name: "audd", available: true, result: identified("audd", 0.9)}},
		{"provider error", &fakeProvider{name: "audd", available: true, err: errors.New("boom")}},
		{"no providers", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var providers []Provider
			if tc.provider != nil {
				providers = append(providers, tc.provider)
			}
			orch, art := newTestOrchestrator(t, providers...)

			orch.Recognize(context.Background(), art)

			if !art.Released() {
				t.Fatal("artifact must be released after recognition")
			}
			if _, err := os.Stat(art.Path); !os.IsNotExist(err) {
				t.Fatalf("recording file should be removed, stat err %v", err)
			}
		})
	}
}
