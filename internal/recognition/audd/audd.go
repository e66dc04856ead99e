// Package audd recognizes recordings through the AudD music recognition API.
package audd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"stylus/internal/config"
	"stylus/internal/recognition"
	"stylus/internal/services"
)

const providerName = "audd"

// returnServices asks AudD to cross reference matches against streaming
// catalogs. A match present in a major catalog earns higher confidence.
const returnServices = "apple_music,spotify,deezer,napster,musicbrainz"

const (
	baseConfidence      = 0.8
	catalogedConfidence = 0.9
)

// Provider implements recognition against api.audd.io.
type Provider struct {
	apiURL   string
	apiToken string
	enabled  bool
	client   *http.Client
}

// New builds an AudD provider from configuration.
func New(cfg *config.Config, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Recognition.AudD.TimeoutSeconds) * time.Second}
	}
	return &Provider{
		apiURL:   cfg.Recognition.AudD.APIURL,
		apiToken: cfg.Recognition.AudD.APIToken,
		enabled:  cfg.Recognition.AudD.Enabled,
		client:   client,
	}
}

func (p *Provider) Name() string { return providerName }

// Available reports whether the provider is enabled and has a token.
func (p *Provider) Available() bool { return p.enabled && p.apiToken != "" }

type apiResponse struct {
	Status string     `json:"status"`
	Result *apiResult `json:"result"`
	Error  *apiError  `json:"error"`
}

type apiError struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type apiResult struct {
	Artist      string          `json:"artist"`
	Title       string          `json:"title"`
	Album       string          `json:"album"`
	ReleaseDate string          `json:"release_date"`
	AppleMusic  json.RawMessage `json:"apple_music"`
	Spotify     json.RawMessage `json:"spotify"`
}

// Recognize uploads the recording and parses the best match.
func (p *Provider) Recognize(ctx context.Context, path string) (recognition.Result, error) {
	if !p.Available() {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrConfiguration, providerName, "recognize", "api token not configured", nil)
	}

	body, contentType, err := p.buildRequestBody(path)
	if err != nil {
		return recognition.Result{Provider: providerName}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, body)
	if err != nil {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrValidation, providerName, "recognize", "failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return recognition.Result{Provider: providerName},
			services.Wrap(marker, providerName, "recognize", "api request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrTransient, providerName, "recognize",
				fmt.Sprintf("api returned HTTP %d", resp.StatusCode), nil)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return recognition.Result{Provider: providerName},
			services.Wrap(services.ErrTransient, providerName, "recognize", "failed to decode response", err)
	}
	return p.toResult(parsed), nil
}

func (p *Provider) buildRequestBody(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", services.Wrap(services.ErrNotFound, providerName, "recognize", "recording file unreadable", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("api_token", p.apiToken); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, providerName, "recognize", "failed to encode request", err)
	}
	if err := writer.WriteField("return", returnServices); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, providerName, "recognize", "failed to encode request", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, providerName, "recognize", "failed to encode request", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, providerName, "recognize", "failed to read recording", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, providerName, "recognize", "failed to encode request", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func (p *Provider) toResult(parsed apiResponse) recognition.Result {
	if parsed.Status != "success" {
		message := "api reported failure"
		if parsed.Error != nil {
			message = parsed.Error.ErrorMessage
		}
		return recognition.Result{Provider: providerName, ErrorMessage: message}
	}
	if parsed.Result == nil {
		return recognition.Result{Provider: providerName, ErrorMessage: "no match found"}
	}

	confidence := baseConfidence
	if hasContent(parsed.Result.AppleMusic) || hasContent(parsed.Result.Spotify) {
		confidence = catalogedConfidence
	}

	return recognition.Result{
		Success:    true,
		Confidence: confidence,
		Provider:   providerName,
		Artist:     parsed.Result.Artist,
		Title:      parsed.Result.Title,
		Album:      parsed.Result.Album,
		Year:       extractYear(parsed.Result.ReleaseDate),
	}
}

// hasContent reports whether a raw JSON field holds anything besides null.
func hasContent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func extractYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
