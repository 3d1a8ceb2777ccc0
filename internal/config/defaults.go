package config

const (
	defaultConfigPath             = "~/.config/ytmeta/config.toml"
	defaultLogDir                 = "~/.local/share/ytmeta/logs"
	defaultStateDir               = "~/.local/share/ytmeta"
	defaultJellyfinTimeoutSeconds = 30
	defaultYTDLPBinary            = "yt-dlp"
	defaultYTDLPTimeoutSeconds    = 120
	defaultYTDLPRequestsPerMinute = 20
	defaultFreshnessTTLHours      = 240
	defaultIndexerSchedule        = "@every 24h"
	defaultIndexerConcurrency     = 1
	defaultIndexerDebounceSeconds = 30
	defaultIndexerHistoryKeep     = 500
	defaultNotifyTimeoutSeconds   = 10
	defaultMetricsBind            = "127.0.0.1:9464"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Jellyfin: Jellyfin{
			TimeoutSeconds: defaultJellyfinTimeoutSeconds,
		},
		YTDLP: YTDLP{
			Binary:            defaultYTDLPBinary,
			TimeoutSeconds:    defaultYTDLPTimeoutSeconds,
			RequestsPerMinute: defaultYTDLPRequestsPerMinute,
		},
		Freshness: Freshness{
			TTLHours: defaultFreshnessTTLHours,
		},
		Indexer: Indexer{
			Schedule:        defaultIndexerSchedule,
			Concurrency:     defaultIndexerConcurrency,
			DebounceSeconds: defaultIndexerDebounceSeconds,
			HistoryKeep:     defaultIndexerHistoryKeep,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
