package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Jellyfin contains configuration for the Jellyfin library the indexer writes to.
type Jellyfin struct {
	Enabled           bool   `toml:"enabled"`
	URL               string `toml:"url"`
	APIKey            string `toml:"api_key"`
	UserID            string `toml:"user_id"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RefreshAfterIndex bool   `toml:"refresh_after_index"`
}

// YTDLP contains configuration for the yt-dlp subprocess used to fetch
// sidecars that are missing or stale.
type YTDLP struct {
	Binary            string `toml:"binary"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Freshness controls how long a cached sidecar is trusted before a refetch.
type Freshness struct {
	TTLHours int `toml:"ttl_hours"`
}

// Indexer contains configuration for the episode indexing pass.
type Indexer struct {
	Schedule        string   `toml:"schedule"`
	Concurrency     int      `toml:"concurrency"`
	DryRun          bool     `toml:"dry_run"`
	WatchDirs       []string `toml:"watch_dirs"`
	DebounceSeconds int      `toml:"debounce_seconds"`
	RunOnStart      bool     `toml:"run_on_start"`
	HistoryKeep     int      `toml:"history_keep"`
}

// Notifications contains ntfy settings for pass summaries.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifySuccess         bool   `toml:"notify_success"`
}

// Metrics contains configuration for the Prometheus listener.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the decoded form of config.toml. Obtain it through Load so paths
// are expanded and values validated.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	YTDLP         YTDLP         `toml:"ytdlp"`
	Freshness     Freshness     `toml:"freshness"`
	Indexer       Indexer       `toml:"indexer"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates the cache, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database that journals indexing passes.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the file used to keep a single daemon or index pass running.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "ytmeta.lock")
}

// FreshnessTTL returns the sidecar cache lifetime.
func (c *Config) FreshnessTTL() time.Duration {
	return time.Duration(c.Freshness.TTLHours) * time.Hour
}

// YTDLPTimeout returns the per-invocation yt-dlp deadline.
func (c *Config) YTDLPTimeout() time.Duration {
	return time.Duration(c.YTDLP.TimeoutSeconds) * time.Second
}

// JellyfinTimeout returns the HTTP client timeout for Jellyfin requests.
func (c *Config) JellyfinTimeout() time.Duration {
	return time.Duration(c.Jellyfin.TimeoutSeconds) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// WatchDebounce returns how long the daemon waits after the last sidecar
// change before starting a pass.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Indexer.DebounceSeconds) * time.Second
}
