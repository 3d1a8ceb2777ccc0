// Package ytdlp drives the yt-dlp CLI to resolve channel names and download
// sidecar metadata into the info cache.
//
// All invocations go through an Executor so tests can substitute canned
// output. A missing binary surfaces as services.ErrToolUnavailable, which
// callers treat as the signal to fall back to sidecars already on disk.
package ytdlp
