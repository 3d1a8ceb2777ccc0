// Package provider exposes the metadata-lookup and change-detection entry
// points for every media kind.
//
// Local providers read sidecars that sit next to the media. Remote providers
// consult the info cache and refetch through yt-dlp when the cached copy is
// stale. Entry points never return errors: every failure is logged and
// surfaces as a result with HasMetadata == false.
package provider
