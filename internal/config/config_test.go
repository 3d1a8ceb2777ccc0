package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytmeta/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("YTMETA_CACHE_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, ".cache", "ytmeta"); cfg.Paths.CacheDir != want {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "ytmeta"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Jellyfin.Enabled {
		t.Fatal("expected Jellyfin disabled by default")
	}
	if cfg.FreshnessTTL() != 240*time.Hour {
		t.Fatalf("unexpected freshness ttl: %s", cfg.FreshnessTTL())
	}
	if cfg.Indexer.Schedule != "@every 24h" {
		t.Fatalf("unexpected schedule: %q", cfg.Indexer.Schedule)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ytmeta.toml")

	type payload struct {
		Freshness struct {
			TTLHours int `toml:"ttl_hours"`
		} `toml:"freshness"`
		Indexer struct {
			Concurrency int      `toml:"concurrency"`
			WatchDirs   []string `toml:"watch_dirs"`
		} `toml:"indexer"`
		Jellyfin struct {
			Enabled bool   `toml:"enabled"`
			URL     string `toml:"url"`
			APIKey  string `toml:"api_key"`
		} `toml:"jellyfin"`
	}
	custom := payload{}
	custom.Freshness.TTLHours = 48
	custom.Indexer.Concurrency = 4
	custom.Indexer.WatchDirs = []string{"/media/youtube", " ", "/media/youtube"}
	custom.Jellyfin.Enabled = true
	custom.Jellyfin.URL = "http://jellyfin.local:8096/"
	custom.Jellyfin.APIKey = "abc123"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.FreshnessTTL() != 48*time.Hour {
		t.Fatalf("expected 48h ttl, got %s", cfg.FreshnessTTL())
	}
	if cfg.Indexer.Concurrency != 4 {
		t.Fatalf("expected concurrency 4, got %d", cfg.Indexer.Concurrency)
	}
	if len(cfg.Indexer.WatchDirs) != 1 || cfg.Indexer.WatchDirs[0] != "/media/youtube" {
		t.Fatalf("expected deduplicated watch dirs, got %v", cfg.Indexer.WatchDirs)
	}
	if cfg.Jellyfin.URL != "http://jellyfin.local:8096" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Jellyfin.URL)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ytmeta.toml")
	if err := os.WriteFile(configPath, []byte("[freshness]\nttl_days = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestJellyfinAPIKeyFallsBackToEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ytmeta.toml")
	body := "[jellyfin]\nenabled = true\nurl = \"http://localhost:8096\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JELLYFIN_API_KEY", " env-jellyfin ")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Jellyfin.APIKey != "env-jellyfin" {
		t.Fatalf("expected Jellyfin key from env, got %q", cfg.Jellyfin.APIKey)
	}
}

func TestCacheDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("YTMETA_CACHE_DIR", dir)
	cfg := config.Default()
	if cfg.Paths.CacheDir != dir {
		t.Fatalf("expected cache dir from env, got %q", cfg.Paths.CacheDir)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "ttl_hours = 240") {
		t.Fatalf("sample config missing freshness ttl: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Indexer.Schedule != "@every 24h" {
		t.Fatalf("unexpected sample schedule: %q", cfg.Indexer.Schedule)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"ttl", func(c *config.Config) { c.Freshness.TTLHours = 0 }},
		{"rate", func(c *config.Config) { c.YTDLP.RequestsPerMinute = 0 }},
		{"concurrency", func(c *config.Config) { c.Indexer.Concurrency = -1 }},
		{"schedule", func(c *config.Config) { c.Indexer.Schedule = "every day" }},
		{"jellyfin url", func(c *config.Config) { c.Jellyfin.Enabled = true; c.Jellyfin.APIKey = "k" }},
		{"jellyfin key", func(c *config.Config) { c.Jellyfin.Enabled = true; c.Jellyfin.URL = "http://x" }},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFallsBackToProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile("ytmeta.toml", []byte("[indexer]\nconcurrency = 7\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "ytmeta.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Indexer.Concurrency != 7 {
		t.Fatalf("expected concurrency from project config, got %d", cfg.Indexer.Concurrency)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := map[string]string{
		"":           "",
		"~":          home,
		"~/media/yt": filepath.Join(home, "media", "yt"),
		"/srv//yt/":  "/srv/yt",
	}
	for in, want := range tests {
		got, err := config.ExpandPath(in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
