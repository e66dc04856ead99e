package config

const (
	defaultDataDir             = "~/.local/share/stylus"
	defaultSpoolDir            = "~/.local/share/stylus/spool"
	defaultLogDir              = "~/.local/share/stylus/logs"
	defaultAudioDevice         = "hw:CODEC"
	defaultSampleRate          = 44100
	defaultChannels            = 2
	defaultFrameSamples        = 4096
	defaultSilenceThreshold    = 0.01
	defaultSilenceSeconds      = 2.0
	defaultMinRecordingSeconds = 30.0
	defaultMaxRecordingSeconds = 120.0
	defaultReadRetrySeconds    = 0.1
	defaultMinConfidence       = 0.6
	defaultAudDAPIURL          = "https://api.audd.io/"
	defaultAcoustIDLookupURL   = "https://api.acoustid.org/v2/lookup"
	defaultFpcalcBinary        = "fpcalc"
	defaultProviderTimeout     = 30
	defaultMalojaTimeout       = 30
	defaultRetryInterval       = 300
	defaultRetryBatchSize      = 25
	defaultDedupWindowSeconds  = 300
	defaultDedupCleanupSeconds = 300
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			SpoolDir: defaultSpoolDir,
			LogDir:   defaultLogDir,
		},
		Audio: Audio{
			Device:       defaultAudioDevice,
			SampleRate:   defaultSampleRate,
			Channels:     defaultChannels,
			FrameSamples: defaultFrameSamples,
		},
		Detection: Detection{
			SilenceThreshold:    defaultSilenceThreshold,
			SilenceSeconds:      defaultSilenceSeconds,
			MinRecordingSeconds: defaultMinRecordingSeconds,
			MaxRecordingSeconds: defaultMaxRecordingSeconds,
			ReadRetrySeconds:    defaultReadRetrySeconds,
		},
		Recognition: Recognition{
			Order:         []string{"audd", "acoustid"},
			MinConfidence: defaultMinConfidence,
			AudD: AudD{
				APIURL:         defaultAudDAPIURL,
				TimeoutSeconds: defaultProviderTimeout,
			},
			AcoustID: AcoustID{
				LookupURL:      defaultAcoustIDLookupURL,
				FpcalcBinary:   defaultFpcalcBinary,
				TimeoutSeconds: defaultProviderTimeout,
			},
		},
		Scrobble: Scrobble{
			Maloja: Maloja{
				TimeoutSeconds: defaultMalojaTimeout,
			},
			RetryInterval:  defaultRetryInterval,
			RetryBatchSize: defaultRetryBatchSize,
		},
		Dedup: Dedup{
			WindowSeconds:   defaultDedupWindowSeconds,
			CleanupInterval: defaultDedupCleanupSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Tracks:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
