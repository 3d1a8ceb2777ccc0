package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ytmeta/internal/config"
	"ytmeta/internal/deps"
)

const jellyfinCheckTimeout = 5 * time.Second

func passed(name, detail string) Result {
	return Result{Name: name, Passed: true, Detail: detail}
}

func failed(name, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// CheckJellyfin asks the server for /System/Info with the configured API key
// and reports the server version when it answers.
func CheckJellyfin(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Jellyfin"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	key := strings.TrimSpace(apiKey)
	switch {
	case base == "":
		return failed(name, "missing url")
	case key == "":
		return failed(name, "missing api key")
	}

	ctx, cancel := context.WithTimeout(ctx, jellyfinCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/System/Info", nil)
	if err != nil {
		return failed(name, "invalid url (%v)", err)
	}
	req.Header.Set("X-Emby-Token", key)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return failed(name, "unreachable (%v)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return failed(name, "auth failed (invalid api key)")
	}
	if resp.StatusCode != http.StatusOK {
		return failed(name, "unexpected status %d", resp.StatusCode)
	}

	var info struct {
		ServerName string `json:"ServerName"`
		Version    string `json:"Version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Version == "" {
		return passed(name, "Reachable")
	}
	server := strings.TrimSpace(info.ServerName + " " + info.Version)
	return passed(name, fmt.Sprintf("Reachable (%s)", server))
}

// CheckDirectoryAccess verifies that path is a directory the process can
// list and write.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return failed(name, "not configured")
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return failed(name, "%s does not exist", path)
	case err != nil:
		return failed(name, "%s: %v", path, err)
	case !info.IsDir():
		return failed(name, "%s is not a directory", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return failed(name, "%s: insufficient permissions (%v)", path, err)
	}
	return passed(name, path)
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{deps.YTDLP(cfg.YTDLP.Binary)})
}
