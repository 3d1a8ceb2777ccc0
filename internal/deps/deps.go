// Package deps reports whether the external binaries ytmeta shells out to
// can be found.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const versionProbeTimeout = 5 * time.Second

// Requirement defines an external dependency ytmeta relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the binary to capture a version
	// string for the status detail.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// YTDLP describes the yt-dlp requirement for the given binary. It is optional:
// without it remote lookups fall back to sidecars already on disk.
func YTDLP(binary string) Requirement {
	return Requirement{
		Name:        "yt-dlp",
		Command:     binary,
		Description: "Fetches channel and video metadata for remote lookups",
		Optional:    true,
		VersionArgs: []string{"--version"},
	}
}

// CheckBinaries evaluates each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

// Check resolves req.Command on PATH and, when VersionArgs are set, records
// the first line the binary prints as the detail.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	status.Command = resolved
	if len(req.VersionArgs) > 0 {
		status.Detail = firstOutputLine(resolved, req.VersionArgs)
	}
	return status
}

func firstOutputLine(binary string, args []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}
