package provider

import (
	"context"
	"fmt"
	"log/slog"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/library"
	"ytmeta/internal/logging"
	"ytmeta/internal/media"
	"ytmeta/internal/metrics"
	"ytmeta/internal/sidecar"
)

// LocatesSidecar finds the sidecar backing a media path.
type LocatesSidecar interface {
	Locate(path string) fileutil.Metadata
}

// MapsToRecord turns a decoded sidecar into a canonical record.
type MapsToRecord interface {
	Map(rec sidecar.Record, id string) media.Result
}

// DetectsChange reports whether a cataloged item needs a fresh lookup.
type DetectsChange interface {
	HasChanged(item library.Item) bool
}

// Lookup result labels recorded in metrics.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// guard converts a panic inside an entry point into an empty result.
func guard(logger *slog.Logger, kind media.Kind, path string, out *media.Result) {
	if r := recover(); r != nil {
		logging.ErrorWithContext(logger, "metadata lookup panicked", "lookup_panic",
			logging.String(logging.FieldPath, path),
			logging.String("kind", kind.String()),
			logging.String("panic", fmt.Sprint(r)),
		)
		*out = media.Empty()
		metrics.RecordLookup(kind.String(), resultError)
	}
}

func record(kind media.Kind, res media.Result) media.Result {
	if res.HasMetadata {
		metrics.RecordLookup(kind.String(), resultHit)
	} else {
		metrics.RecordLookup(kind.String(), resultMiss)
	}
	return res
}

func cancelled(ctx context.Context) bool {
	return ctx != nil && ctx.Err() != nil
}
