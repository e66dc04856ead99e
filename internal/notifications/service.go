package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stylus/internal/config"
)

const userAgent = "Stylus-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyTrackScrobbled(ctx context.Context, track, provider string, confidence float64) error
	NotifyTrackQueued(ctx context.Context, track string) error
	NotifyRecognitionFailed(ctx context.Context, reason string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		tracks:   cfg.Notifications.Tracks,
		errors:   cfg.Notifications.Errors,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	tracks   bool
	errors   bool
	client   *http.Client
}

func (n *ntfyService) NotifyTrackScrobbled(ctx context.Context, track, provider string, confidence float64) error {
	if !n.tracks {
		return nil
	}
	track = strings.TrimSpace(track)
	data := payload{
		title:   "Stylus - Track Scrobbled",
		message: fmt.Sprintf("🎵 %s (%s, %.2f)", track, provider, confidence),
		tags:    []string{"stylus", "scrobble", "delivered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTrackQueued(ctx context.Context, track string) error {
	if !n.tracks {
		return nil
	}
	track = strings.TrimSpace(track)
	data := payload{
		title:   "Stylus - Scrobble Queued",
		message: fmt.Sprintf("Delivery failed, queued for retry: %s", track),
		tags:    []string{"stylus", "scrobble", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecognitionFailed(ctx context.Context, reason string) error {
	if !n.errors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:   "Stylus - Unrecognized Track",
		message: fmt.Sprintf("Could not identify recording: %s", reason),
		tags:    []string{"stylus", "recognition", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Stylus - Error",
		message:  builder.String(),
		tags:     []string{"stylus", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Stylus - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"stylus", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTrackScrobbled(context.Context, string, string, float64) error { return nil }
func (noopService) NotifyTrackQueued(context.Context, string) error                     { return nil }
func (noopService) NotifyRecognitionFailed(context.Context, string) error               { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
