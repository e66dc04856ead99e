package testsupport

import (
	"path/filepath"
	"testing"

	"stylus/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.SpoolDir = filepath.Join(base, "spool")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaloja enables the Maloja backend pointed at the given endpoint.
func WithMaloja(apiURL, apiKey string) ConfigOption {
	return func(c *config.Config) {
		c.Scrobble.Maloja.Enabled = true
		c.Scrobble.Maloja.APIURL = apiURL
		c.Scrobble.Maloja.APIKey = apiKey
	}
}
