// Package indexer reorders the seasons and episodes of YouTube-sourced shows
// so they sort by upload date.
//
// A pass walks every show tagged with the YoutubeMetadata provider id.
// Seasons are numbered 1..N by name. Episodes of a season where every
// episode has a premiere date get date-encoded indices: the episode number is
// month*1000 + day*10 + same-day offset and the season number is the year.
// Seasons with any undated episode fall back to sequential numbering. More
// than nine uploads on one day overflow into the next day's encoding.
//
// Passes are idempotent. Write failures are recorded per item and the pass
// moves on; a library.FatalError stops the remaining writes for that show.
package indexer
