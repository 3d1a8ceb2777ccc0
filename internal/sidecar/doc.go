// Package sidecar reads the .info.json documents yt-dlp writes next to
// downloaded media and locates the one that belongs to a given media path.
package sidecar
