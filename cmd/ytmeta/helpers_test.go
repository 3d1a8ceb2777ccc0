package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ytmeta/internal/config"
	"ytmeta/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(homeDir, ".config", "ytmeta", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\ncache_dir = %q\nstate_dir = %q\nlog_dir = %q\n\n", cfg.Paths.CacheDir, cfg.Paths.StateDir, cfg.Paths.LogDir)
	fmt.Fprintf(&b, "[jellyfin]\nenabled = %t\nurl = %q\napi_key = %q\n\n", cfg.Jellyfin.Enabled, cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
	fmt.Fprintf(&b, "[indexer]\nschedule = %q\n\n", cfg.Indexer.Schedule)
	if cfg.Notifications.NtfyTopic != "" {
		fmt.Fprintf(&b, "[notifications]\nntfy_topic = %q\n\n", cfg.Notifications.NtfyTopic)
	}
	fmt.Fprintf(&b, "[logging]\nlevel = \"error\"\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// fakeJellyfin serves one YouTube show with a single season of two dated
// episodes and records item updates.
type fakeJellyfin struct {
	mu      sync.Mutex
	updates []string
}

func newFakeJellyfin(t *testing.T) (*fakeJellyfin, *httptest.Server) {
	t.Helper()
	fake := &fakeJellyfin{}
	items := map[string][]map[string]any{
		"Series": {{
			"Id": "show1", "Name": "Channel", "Type": "Series",
			"ProviderIds": map[string]string{"YoutubeMetadata": "UCabcdefghijklmnopqrstuv"},
		}},
		"Season": {{"Id": "season1", "Name": "2024", "Type": "Season", "ParentId": "show1"}},
		"Episode": {
			{"Id": "ep2", "Name": "Second", "Type": "Episode", "PremiereDate": "2024-03-05T00:00:00Z"},
			{"Id": "ep1", "Name": "First", "Type": "Episode", "PremiereDate": "2024-01-02T00:00:00Z"},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Items", func(w http.ResponseWriter, r *http.Request) {
		list := items[r.URL.Query().Get("IncludeItemTypes")]
		_ = json.NewEncoder(w).Encode(map[string]any{"Items": list, "TotalRecordCount": len(list)})
	})
	mux.HandleFunc("GET /Items/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Id": r.PathValue("id"), "Name": "x"})
	})
	mux.HandleFunc("POST /Items/{id}", func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.updates = append(fake.updates, r.PathValue("id"))
		fake.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fake, server
}

func (f *fakeJellyfin) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}
