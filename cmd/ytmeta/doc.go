// Command ytmeta looks up YouTube metadata from yt-dlp sidecars, runs the
// Jellyfin episode indexing pass, and hosts the ytmeta daemon.
//
// Lookups and change checks work without any server: they read the
// *.info.json files next to the media and, with --remote, the yt-dlp backed
// cache. Indexing needs the [jellyfin] section enabled.
package main
