package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeRecognition()
	c.normalizeScrobble()
	c.normalizeDedup()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		c.Paths.SpoolDir = defaultSpoolDir
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.Device = strings.TrimSpace(c.Audio.Device)
	if c.Audio.Device == "" {
		c.Audio.Device = defaultAudioDevice
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = defaultChannels
	}
	if c.Audio.FrameSamples <= 0 {
		c.Audio.FrameSamples = defaultFrameSamples
	}
}

func (c *Config) normalizeRecognition() {
	if len(c.Recognition.Order) == 0 {
		c.Recognition.Order = []string{"audd", "acoustid"}
	}
	for i, name := range c.Recognition.Order {
		c.Recognition.Order[i] = strings.ToLower(strings.TrimSpace(name))
	}

	c.Recognition.AudD.APIURL = strings.TrimSpace(c.Recognition.AudD.APIURL)
	if c.Recognition.AudD.APIURL == "" {
		c.Recognition.AudD.APIURL = defaultAudDAPIURL
	}
	if token, ok := os.LookupEnv("AUDD_API_TOKEN"); ok && strings.TrimSpace(c.Recognition.AudD.APIToken) == "" {
		c.Recognition.AudD.APIToken = strings.TrimSpace(token)
	}
	if c.Recognition.AudD.TimeoutSeconds <= 0 {
		c.Recognition.AudD.TimeoutSeconds = defaultProviderTimeout
	}

	c.Recognition.AcoustID.LookupURL = strings.TrimSpace(c.Recognition.AcoustID.LookupURL)
	if c.Recognition.AcoustID.LookupURL == "" {
		c.Recognition.AcoustID.LookupURL = defaultAcoustIDLookupURL
	}
	if key, ok := os.LookupEnv("ACOUSTID_API_KEY"); ok && strings.TrimSpace(c.Recognition.AcoustID.APIKey) == "" {
		c.Recognition.AcoustID.APIKey = strings.TrimSpace(key)
	}
	if strings.TrimSpace(c.Recognition.AcoustID.FpcalcBinary) == "" {
		c.Recognition.AcoustID.FpcalcBinary = defaultFpcalcBinary
	}
	if c.Recognition.AcoustID.TimeoutSeconds <= 0 {
		c.Recognition.AcoustID.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) normalizeScrobble() {
	c.Scrobble.Maloja.APIURL = strings.TrimRight(strings.TrimSpace(c.Scrobble.Maloja.APIURL), "/")
	if key, ok := os.LookupEnv("MALOJA_API_KEY"); ok && strings.TrimSpace(c.Scrobble.Maloja.APIKey) == "" {
		c.Scrobble.Maloja.APIKey = strings.TrimSpace(key)
	}
	if c.Scrobble.Maloja.TimeoutSeconds <= 0 {
		c.Scrobble.Maloja.TimeoutSeconds = defaultMalojaTimeout
	}
	if c.Scrobble.RetryInterval <= 0 {
		c.Scrobble.RetryInterval = defaultRetryInterval
	}
	if c.Scrobble.RetryBatchSize <= 0 {
		c.Scrobble.RetryBatchSize = defaultRetryBatchSize
	}
}

func (c *Config) normalizeDedup() {
	if c.Dedup.WindowSeconds <= 0 {
		c.Dedup.WindowSeconds = defaultDedupWindowSeconds
	}
	if c.Dedup.CleanupInterval <= 0 {
		c.Dedup.CleanupInterval = defaultDedupCleanupSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
