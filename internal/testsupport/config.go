package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytmeta/internal/config"
)

// ConfigOption customizes a config produced by NewConfig. base is the
// per-test temp root.
type ConfigOption func(t testing.TB, cfg *config.Config, base string)

// NewConfig returns default settings rooted in a fresh temp directory, with
// the metrics listener on an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Metrics.Bind = "127.0.0.1:0"
	for _, opt := range opts {
		opt(t, &cfg, base)
	}
	return &cfg
}

// BaseDir returns the temp root behind a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WithJellyfin enables the Jellyfin section against url.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Jellyfin.Enabled = true
		cfg.Jellyfin.URL = url
		cfg.Jellyfin.APIKey = apiKey
	}
}

// WithStubbedBinaries puts no-op executables named names (yt-dlp when empty)
// first on PATH for the rest of the test. Stubs answer --version.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, _ *config.Config, base string) {
		if len(names) == 0 {
			names = []string{"yt-dlp"}
		}
		binDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		script := "#!/bin/sh\n[ \"$1\" = \"--version\" ] && echo stub\nexit 0\n"
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", strings.Join([]string{binDir, os.Getenv("PATH")}, string(os.PathListSeparator)))
	}
}
