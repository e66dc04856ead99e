package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateScrobble(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate %d is too low", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.SilenceThreshold <= 0 || c.Detection.SilenceThreshold >= 1 {
		return errors.New("detection.silence_threshold must be between 0 and 1")
	}
	if c.Detection.SilenceSeconds <= 0 {
		return errors.New("detection.silence_seconds must be positive")
	}
	if c.Detection.MinRecordingSeconds <= 0 {
		return errors.New("detection.min_recording_seconds must be positive")
	}
	if c.Detection.MaxRecordingSeconds <= c.Detection.MinRecordingSeconds {
		return errors.New("detection.max_recording_seconds must exceed detection.min_recording_seconds")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if c.Recognition.MinConfidence < 0 || c.Recognition.MinConfidence > 1 {
		return errors.New("recognition.min_confidence must be between 0 and 1")
	}
	for _, name := range c.Recognition.Order {
		switch name {
		case "audd", "acoustid":
		default:
			return fmt.Errorf("recognition.order contains unknown provider %q", name)
		}
	}
	if c.Recognition.AudD.Enabled && strings.TrimSpace(c.Recognition.AudD.APIToken) == "" {
		return errors.New("recognition.audd.api_token is required when recognition.audd.enabled is true (or set AUDD_API_TOKEN)")
	}
	if c.Recognition.AcoustID.Enabled && strings.TrimSpace(c.Recognition.AcoustID.APIKey) == "" {
		return errors.New("recognition.acoustid.api_key is required when recognition.acoustid.enabled is true (or set ACOUSTID_API_KEY)")
	}
	return nil
}

func (c *Config) validateScrobble() error {
	if c.Scrobble.Maloja.Enabled && strings.TrimSpace(c.Scrobble.Maloja.APIURL) == "" {
		return errors.New("scrobble.maloja.api_url must be set when scrobble.maloja.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
