package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"ytdlp.timeout_seconds":     c.YTDLP.TimeoutSeconds,
		"ytdlp.requests_per_minute": c.YTDLP.RequestsPerMinute,
		"freshness.ttl_hours":       c.Freshness.TTLHours,
		"indexer.concurrency":       c.Indexer.Concurrency,
	}); err != nil {
		return err
	}
	if err := c.validateIndexer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if !c.Jellyfin.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set when jellyfin.enabled is true")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set when jellyfin.enabled is true (or set JELLYFIN_API_KEY)")
	}
	return nil
}

func (c *Config) validateIndexer() error {
	if c.Indexer.Schedule != "" {
		if _, err := cron.ParseStandard(c.Indexer.Schedule); err != nil {
			return fmt.Errorf("indexer.schedule %q is invalid: %w", c.Indexer.Schedule, err)
		}
	}
	if c.Indexer.DebounceSeconds < 0 {
		return errors.New("indexer.debounce_seconds must be >= 0")
	}
	if c.Indexer.HistoryKeep < 0 {
		return errors.New("indexer.history_keep must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
