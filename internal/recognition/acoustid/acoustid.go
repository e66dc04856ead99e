// Package acoustid recognizes recordings by Chromaprint fingerprint through
// the AcoustID lookup API. Fingerprints are computed with the external
// fpcalc tool.
package acoustid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"stylus/internal/config"
	"stylus/internal/recognition"
	"stylus/internal/services"
)

const providerName = "acoustid"

// Provider implements recognition against api.acoustid.org.
type Provider struct {
	apiKey    string
	lookupURL string
	fpcalc    string
	enabled   bool
	client    *http.Client
}

// New builds an AcoustID provider from configuration.
func New(cfg *config.Config, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Recognition.AcoustID.TimeoutSeconds) * time.Second}
	}
	return &Provider{
		apiKey:    cfg.Recognition.AcoustID.APIKey,
		lookupURL: cfg.Recognition.AcoustID.LookupURL,
		fpcalc:    cfg.Recognition.AcoustID.FpcalcBinary,
		enabled:   cfg.Recognition.AcoustID.Enabled,
		client:    client,
	}
}

func (p *Provider) Name() string { return providerName }

// Available reports whether the provider is enabled, has a key, and fpcalc
// can be found.
func (p *Provider) Available() bool {
	if !p.enabled || p.apiKey == "" {
		return false
	}
	_, err := exec.LookPath(p.fpcalc)
	return err == nil
}

type chromaprint struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

type releaseGroup struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type lookupRecording struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Artists  []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ReleaseGroups []releaseGroup `json:"releasegroups"`
}

type lookupResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Score      float64           `json:"score"`
		Recordings []lookupRecording `json:"recordings"`
	} `json:"results"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Recognize fingerprints the recording and looks it up.
func (p *Provider) Recognize(ctx context.Context, path string) (recognition.Result, error) {
	fp, err := p.computeFingerprint(ctx, path)
	if err != nil {
		return recognition.Result{Provider: providerName}, err
	}

	form := url.Values{
		"client":      {p.apiKey},
		"format":      {"json"},
		"fingerprint": {fp.Fingerprint},
		"duration":    {strconv.Itoa(int(fp.Duration))},
		"meta":        {"recordings releasegroups"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.lookupURL, strings.NewReader(form.Encode()))
	if err != nil {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrValidation, providerName, "lookup", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return recognition.Result{Provider: providerName},
			services.Wrap(marker, providerName, "lookup", "api request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrTransient, providerName, "lookup",
				fmt.Sprintf("api returned HTTP %d", resp.StatusCode), nil)
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrTransient, providerName, "lookup", "failed to decode response", err)
	}
	return toResult(parsed), nil
}

// computeFingerprint runs fpcalc over the recording and parses its JSON
// output.
func (p *Provider) computeFingerprint(ctx context.Context, path string) (chromaprint, error) {
	cmd := exec.CommandContext(ctx, p.fpcalc, "-json", path)
	output, err := cmd.Output()
	if err != nil {
		return chromaprint{}, services.Wrap(services.ErrExternalTool, providerName, "fingerprint",
			"fpcalc failed", err)
	}

	var fp chromaprint
	if err := json.Unmarshal(output, &fp); err != nil {
		return chromaprint{}, services.Wrap(services.ErrExternalTool, providerName, "fingerprint",
			"unexpected fpcalc output", err)
	}
	if fp.Fingerprint == "" {
		return chromaprint{}, services.Wrap(services.ErrExternalTool, providerName, "fingerprint",
			"fpcalc produced no fingerprint", nil)
	}
	return fp, nil
}

func toResult(parsed lookupResponse) recognition.Result {
	if parsed.Status != "ok" {
		message := parsed.Error.Message
		if message == "" {
			message = "api reported failure"
		}
		return recognition.Result{Provider: providerName, ErrorMessage: message}
	}

	// Candidates arrive in arbitrary order. Take the highest scoring one
	// that carries recording metadata.
	best := recognition.Result{Provider: providerName, ErrorMessage: "no match found"}
	for _, candidate := range parsed.Results {
		if len(candidate.Recordings) == 0 || candidate.Score <= best.Confidence {
			continue
		}
		rec := candidate.Recordings[0]
		if rec.Title == "" {
			continue
		}
		result := recognition.Result{
			Success:    true,
			Confidence: candidate.Score,
			Provider:   providerName,
			Title:      rec.Title,
			Album:      pickAlbum(rec.ReleaseGroups),
			Duration:   int(rec.Duration),
		}
		if len(rec.Artists) > 0 {
			result.Artist = rec.Artists[0].Name
		}
		best = result
	}
	return best
}

// pickAlbum prefers a proper album release group over singles and
// compilations.
func pickAlbum(groups []releaseGroup) string {
	for _, group := range groups {
		if strings.EqualFold(group.Type, "Album") {
			return group.Title
		}
	}
	if len(groups) > 0 {
		return groups[0].Title
	}
	return ""
}
