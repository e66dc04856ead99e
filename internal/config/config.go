package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	SpoolDir string `toml:"spool_dir"`
	LogDir   string `toml:"log_dir"`
}

// Audio contains capture device configuration.
type Audio struct {
	Device       string `toml:"device"`
	SampleRate   int    `toml:"sample_rate"`
	Channels     int    `toml:"channels"`
	FrameSamples int    `toml:"frame_samples"`
}

// Detection contains the silence/music segmentation thresholds.
type Detection struct {
	SilenceThreshold    float64 `toml:"silence_threshold"`
	SilenceSeconds      float64 `toml:"silence_seconds"`
	MinRecordingSeconds float64 `toml:"min_recording_seconds"`
	MaxRecordingSeconds float64 `toml:"max_recording_seconds"`
	ReadRetrySeconds    float64 `toml:"read_retry_seconds"`
}

// AudD contains configuration for the AudD recognition provider.
type AudD struct {
	Enabled        bool   `toml:"enabled"`
	APIURL         string `toml:"api_url"`
	APIToken       string `toml:"api_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AcoustID contains configuration for the AcoustID recognition provider.
type AcoustID struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	LookupURL      string `toml:"lookup_url"`
	FpcalcBinary   string `toml:"fpcalc_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Recognition contains provider ordering and acceptance thresholds.
type Recognition struct {
	Order         []string `toml:"order"`
	MinConfidence float64  `toml:"min_confidence"`
	AudD          AudD     `toml:"audd"`
	AcoustID      AcoustID `toml:"acoustid"`
}

// Maloja contains configuration for the Maloja scrobble backend.
type Maloja struct {
	Enabled        bool   `toml:"enabled"`
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Scrobble contains delivery backend and retry queue configuration.
type Scrobble struct {
	Maloja         Maloja `toml:"maloja"`
	RetryInterval  int    `toml:"retry_interval"`
	RetryBatchSize int    `toml:"retry_batch_size"`
}

// Dedup contains duplicate-suppression settings.
type Dedup struct {
	WindowSeconds   int `toml:"window_seconds"`
	CleanupInterval int `toml:"cleanup_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Tracks         bool   `toml:"tracks"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Stylus.
//
// Sections by subsystem:
//   - Paths: database, spool, and log directories
//   - Audio: capture device geometry
//   - Detection: silence/music segmentation thresholds
//   - Recognition: provider order, confidence threshold, provider credentials
//   - Scrobble: Maloja backend and retry queue behavior
//   - Dedup: duplicate-suppression window
//   - Notifications: ntfy settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Audio         Audio         `toml:"audio"`
	Detection     Detection     `toml:"detection"`
	Recognition   Recognition   `toml:"recognition"`
	Scrobble      Scrobble      `toml:"scrobble"`
	Dedup         Dedup         `toml:"dedup"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stylus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stylus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.SpoolDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SilenceWindow returns the continuous-silence duration that ends a recording.
func (c *Config) SilenceWindow() time.Duration {
	return secondsToDuration(c.Detection.SilenceSeconds)
}

// MinRecording returns the minimum duration a buffer must reach to be spooled.
func (c *Config) MinRecording() time.Duration {
	return secondsToDuration(c.Detection.MinRecordingSeconds)
}

// MaxRecording returns the duration at which a recording is force-finalized.
func (c *Config) MaxRecording() time.Duration {
	return secondsToDuration(c.Detection.MaxRecordingSeconds)
}

// ReadRetryDelay returns the pause applied after a transient device read error.
func (c *Config) ReadRetryDelay() time.Duration {
	return secondsToDuration(c.Detection.ReadRetrySeconds)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
