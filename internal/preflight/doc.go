// Package preflight provides readiness checks for the external services and
// filesystem paths ytmeta depends on.
//
// The "ytmeta doctor" command renders every result; the daemon runs the same
// checks at startup and logs failures without refusing to start, since a
// missing yt-dlp or unreachable Jellyfin only degrades individual passes.
package preflight
