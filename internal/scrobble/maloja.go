package scrobble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"stylus/internal/config"
	"stylus/internal/history"
	"stylus/internal/logging"
	"stylus/internal/recognition"
	"stylus/internal/services"
)

const malojaSource = "maloja"

// newScrobblePath is Maloja's native ingestion endpoint.
const newScrobblePath = "/newscrobble"

// Maloja delivers scrobbles to a Maloja server. Failed attempts are written
// to the retry queue in the history store.
type Maloja struct {
	logger  *slog.Logger
	store   *history.Store
	apiURL  string
	apiKey  string
	enabled bool
	client  *http.Client
}

// NewMaloja builds a Maloja deliverer from configuration.
func NewMaloja(cfg *config.Config, logger *slog.Logger, store *history.Store, client *http.Client) *Maloja {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Scrobble.Maloja.TimeoutSeconds) * time.Second}
	}
	return &Maloja{
		logger:  logging.NewComponentLogger(logger, "scrobble"),
		store:   store,
		apiURL:  cfg.Scrobble.Maloja.APIURL,
		apiKey:  cfg.Scrobble.Maloja.APIKey,
		enabled: cfg.Scrobble.Maloja.Enabled,
		client:  client,
	}
}

// Available reports whether the backend is enabled and has an endpoint.
func (m *Maloja) Available() bool { return m.enabled && m.apiURL != "" }

type payload struct {
	Artists  []string `json:"artists"`
	Title    string   `json:"title"`
	Album    string   `json:"album,omitempty"`
	Duration int      `json:"duration,omitempty"`
	Time     int64    `json:"time"`
	APIKey   string   `json:"apikey,omitempty"`
}

type serverResponse struct {
	Status string `json:"status"`
	Desc   string `json:"desc"`
}

// Deliver attempts an immediate scrobble. A backend rejection or transport
// failure queues the entry and returns OutcomeQueued; only an undeliverable
// result returns OutcomeError.
func (m *Maloja) Deliver(ctx context.Context, result recognition.Result, playedAt time.Time) (Outcome, error) {
	if !result.Success || result.Artist == "" || result.Title == "" {
		return OutcomeError, services.Wrap(services.ErrValidation, malojaSource, "deliver",
			"recognition result is missing artist or title", nil)
	}
	if !m.Available() {
		return OutcomeDisabled, nil
	}
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	entry := history.Entry{
		Artist:   result.Artist,
		Title:    result.Title,
		Album:    result.Album,
		PlayedAt: playedAt.Unix(),
		Duration: result.Duration,
	}

	raw, err := m.post(ctx, m.buildPayload(entry))
	if err != nil {
		m.logger.Warn("scrobble delivery failed, queueing for retry",
			logging.String(logging.FieldTrack, result.Track()),
			logging.Error(err))
		return m.queue(ctx, entry, failureMetadata(m.buildPayload(entry), "", err))
	}
	if !accepted(raw) {
		m.logger.Warn("server rejected scrobble, queueing for retry",
			logging.String(logging.FieldTrack, result.Track()),
			logging.String("response", string(raw)))
		return m.queue(ctx, entry, failureMetadata(m.buildPayload(entry), string(raw), nil))
	}

	if _, err := m.store.AddToHistory(ctx, entry, malojaSource, result.Confidence, string(raw)); err != nil {
		m.logger.Error("failed to record scrobble history", logging.Error(err))
	}
	m.logger.Info("scrobble delivered", logging.String(logging.FieldTrack, result.Track()))
	return OutcomeSuccess, nil
}

// Redeliver retries a previously queued scrobble. It writes history on
// success and leaves queue bookkeeping to the caller.
func (m *Maloja) Redeliver(ctx context.Context, item *history.QueueItem) error {
	if !m.Available() {
		return services.Wrap(services.ErrConfiguration, malojaSource, "redeliver", "backend not configured", nil)
	}

	raw, err := m.post(ctx, m.buildPayload(item.Entry))
	if err != nil {
		return err
	}
	if !accepted(raw) {
		return services.Wrap(services.ErrTransient, malojaSource, "redeliver",
			fmt.Sprintf("server rejected scrobble: %s", string(raw)), nil)
	}

	if _, err := m.store.AddToHistory(ctx, item.Entry, malojaSource, 0, string(raw)); err != nil {
		m.logger.Error("failed to record scrobble history", logging.Error(err))
	}
	return nil
}

func (m *Maloja) buildPayload(entry history.Entry) payload {
	return payload{
		Artists:  []string{entry.Artist},
		Title:    entry.Title,
		Album:    entry.Album,
		Duration: entry.Duration,
		Time:     entry.PlayedAt,
		APIKey:   m.apiKey,
	}
}

func (m *Maloja) post(ctx context.Context, p payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, malojaSource, "deliver", "failed to encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL+newScrobblePath, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, malojaSource, "deliver", "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, malojaSource, "deliver", "request failed", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, services.Wrap(services.ErrTransient, malojaSource, "deliver", "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, malojaSource, "deliver",
			fmt.Sprintf("server returned HTTP %d: %s", resp.StatusCode, buf.String()), nil)
	}
	return buf.Bytes(), nil
}

// accepted reports whether the response body carries Maloja's success
// marker.
func accepted(raw []byte) bool {
	var parsed serverResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false
	}
	return parsed.Status == "success" || parsed.Status == "ok"
}

func (m *Maloja) queue(ctx context.Context, entry history.Entry, metadata string) (Outcome, error) {
	if _, err := m.store.AddToQueue(ctx, entry, metadata); err != nil {
		m.logger.Error("failed to queue scrobble", logging.Error(err))
		return OutcomeError, services.Wrap(services.ErrTransient, malojaSource, "deliver",
			"delivery failed and the retry queue is unavailable", err)
	}
	return OutcomeQueued, nil
}

// failureMetadata records what was sent and what came back for later
// inspection via the queue commands.
func failureMetadata(p payload, response string, cause error) string {
	p.APIKey = ""
	detail := map[string]any{"payload": p}
	if response != "" {
		detail["response"] = response
	}
	if cause != nil {
		detail["error"] = cause.Error()
	}
	encoded, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(encoded)
}
