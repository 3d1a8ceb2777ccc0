// Package infocache manages the on-disk cache of sidecars fetched by yt-dlp
// and the freshness policy that decides when they are refetched.
//
// Entries live at <cache_dir>/youtubemetadata/<key>/ytvideo.info.json, where
// key is a video id or a sanitized channel name. New entries are installed
// with an atomic rename.
package infocache
