package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytmeta/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		path       string
		wantPass   bool
		wantDetail string
	}{
		{name: "writable dir", path: dir, wantPass: true, wantDetail: dir},
		{name: "missing", path: filepath.Join(dir, "nope"), wantDetail: "does not exist"},
		{name: "file", path: file, wantDetail: "is not a directory"},
		{name: "blank", path: "  ", wantDetail: "not configured"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tc.path)
			if result.Passed != tc.wantPass {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tc.wantPass, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.wantDetail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tc.wantDetail)
			}
		})
	}
}

func jellyfinServer(t *testing.T, key string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/System/Info" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Emby-Token") != key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ServerName":"media","Version":"10.9.11","Id":"abc"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckJellyfin(t *testing.T) {
	srv := jellyfinServer(t, "good-key")

	tests := []struct {
		name       string
		url        string
		key        string
		wantPass   bool
		wantDetail string
	}{
		{name: "ok", url: srv.URL + "/", key: "good-key", wantPass: true, wantDetail: "Reachable (media 10.9.11)"},
		{name: "bad key", url: srv.URL, key: "bad-key", wantDetail: "invalid api key"},
		{name: "missing url", url: "", key: "key", wantDetail: "missing url"},
		{name: "missing key", url: srv.URL, key: " ", wantDetail: "missing api key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckJellyfin(context.Background(), tc.url, tc.key)
			if result.Passed != tc.wantPass {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tc.wantPass, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.wantDetail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tc.wantDetail)
			}
		})
	}
}

func TestCheckJellyfinUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckJellyfin(context.Background(), srv.URL, "key")
	if result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected 502 failure, got %+v", result)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAllMinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	// cache, state, and log directories plus yt-dlp
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no failures")
	}
}

func TestRunAllMissingYTDLPIsOptional(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.YTDLP.Binary = "clearly-not-present-yt-dlp"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	var ytdlp *Result
	for i := range results {
		if results[i].Name == "yt-dlp" {
			ytdlp = &results[i]
		}
	}
	if ytdlp == nil || ytdlp.Passed || !ytdlp.Optional {
		t.Fatalf("expected optional failing yt-dlp result, got %#v", ytdlp)
	}
	if Failed(results) {
		t.Fatal("optional failure must not fail the run")
	}
}

func TestRunAllAddsWatchDirsAndJellyfin(t *testing.T) {
	srv := jellyfinServer(t, "test")
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithJellyfin(srv.URL, "test"))
	cfg.Indexer.WatchDirs = []string{filepath.Join(testsupport.BaseDir(cfg), "missing-media")}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	byName := map[string]Result{}
	for _, r := range RunAll(context.Background(), cfg) {
		byName[r.Name] = r
	}
	if r, ok := byName["Jellyfin"]; !ok || !r.Passed {
		t.Fatalf("expected passing Jellyfin check, got %+v", r)
	}
	if r, ok := byName["Watch directory"]; !ok || r.Passed {
		t.Fatalf("expected failing watch directory check, got %+v", r)
	}
}

func TestFailedIgnoresOptional(t *testing.T) {
	if !Failed([]Result{{Name: "dir", Passed: false}}) {
		t.Fatal("expected required failure to count")
	}
	if Failed([]Result{{Name: "tool", Optional: true}}) {
		t.Fatal("expected optional failure to be ignored")
	}
}
