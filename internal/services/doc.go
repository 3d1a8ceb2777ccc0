// Package services defines shared utilities consumed by the lookup providers,
// the episode indexer, and the external integrations (yt-dlp, Jellyfin).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, show names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (tool unavailable vs transient vs invalid).
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the pipeline.
package services
