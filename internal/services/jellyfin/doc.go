// Package jellyfin implements library.Library over the Jellyfin REST API.
//
// Reads page through /Items filtered by parent and item type. Writes fetch
// the full item document, change only the index fields, and post it back so
// fields this package does not model survive the round trip. Library scans
// can be triggered with Refresh.
package jellyfin
