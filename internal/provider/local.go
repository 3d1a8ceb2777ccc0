package provider

import (
	"context"
	"log/slog"
	"strings"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/library"
	"ytmeta/internal/logging"
	"ytmeta/internal/media"
	"ytmeta/internal/sidecar"
	"ytmeta/internal/ytid"
)

// Local reads sidecars stored beside the media. One value serves one kind.
type Local struct {
	kind    media.Kind
	locator *sidecar.Locator
	logger  *slog.Logger
}

var (
	_ LocatesSidecar = (*Local)(nil)
	_ MapsToRecord   = (*Local)(nil)
	_ DetectsChange  = (*Local)(nil)
)

// NewLocal builds a local provider for kind. A nil fs uses the host
// filesystem.
func NewLocal(kind media.Kind, fsys fileutil.FS, logger *slog.Logger) *Local {
	logger = logging.NewComponentLogger(logger, "provider").With(logging.String("kind", kind.String()))
	return &Local{
		kind:    kind,
		locator: sidecar.NewLocator(fsys, logger),
		logger:  logger,
	}
}

// Kind returns the media kind this provider produces.
func (l *Local) Kind() media.Kind {
	return l.kind
}

// Locate finds the sidecar for path. Series search the whole tree below path
// for an info file whose path carries a channel id; other kinds use the
// sibling rules of sidecar.Locator.
func (l *Local) Locate(path string) fileutil.Metadata {
	if l.kind == media.KindSeries {
		found, ok := l.seriesSidecar(context.Background(), path)
		if !ok {
			return fileutil.Missing(path)
		}
		return l.locator.FS().Stat(found.Path)
	}
	return l.locator.Locate(path)
}

// Map implements MapsToRecord.
func (l *Local) Map(rec sidecar.Record, id string) media.Result {
	res, err := media.Map(l.kind, rec, id)
	if err != nil {
		l.logger.Debug("mapping failed", logging.Error(err))
		return media.Empty()
	}
	return res
}

// GetMetadata returns the record for the media at path.
func (l *Local) GetMetadata(ctx context.Context, path string) (res media.Result) {
	logger := logging.WithContext(ctx, l.logger).With(logging.String(logging.FieldPath, path))
	defer guard(logger, l.kind, path, &res)
	if cancelled(ctx) {
		return media.Empty()
	}
	if l.kind == media.KindSeries {
		return record(l.kind, l.seriesMetadata(ctx, path, logger))
	}
	return record(l.kind, l.videoMetadata(path, logger))
}

func (l *Local) videoMetadata(path string, logger *slog.Logger) media.Result {
	meta := l.locator.Locate(path)
	if !meta.Exists {
		logger.Debug("no sidecar for media")
		return media.Empty()
	}
	rec, err := sidecar.Read(l.locator.FS(), meta.Path)
	if err != nil {
		logging.WarnWithContext(logger, "sidecar unreadable", "sidecar_unreadable",
			logging.String("sidecar", meta.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-download the info file with yt-dlp --write-info-json"),
			logging.String(logging.FieldImpact, "item keeps its existing metadata"),
		)
		return media.Empty()
	}
	id, ok := ytid.VideoID(path)
	if !ok && ytid.Valid(ytid.KindVideo, rec.ID) {
		id, ok = rec.ID, true
	}
	if !ok {
		logger.Debug("no video id in path or sidecar")
		return media.Empty()
	}
	return l.Map(rec, id)
}

func (l *Local) seriesMetadata(ctx context.Context, path string, logger *slog.Logger) media.Result {
	found, ok := l.seriesSidecar(ctx, path)
	if !ok {
		logger.Debug("no channel sidecar below series directory")
		return media.Empty()
	}
	id := found.Record.ChannelID
	if id == "" {
		id, _ = ytid.ChannelID(found.Path)
	}
	logger.Debug("series sidecar found", logging.String("sidecar", found.Path), logging.String("channel_id", id))
	return l.Map(found.Record, id)
}

func (l *Local) seriesSidecar(ctx context.Context, root string) (sidecar.Found, bool) {
	return sidecar.FirstParseable(ctx, l.locator.FS(), root, sidecar.ScanOptions{
		Match: func(p string) bool {
			_, ok := ytid.ChannelID(p)
			return ok
		},
		OnSkip: func(p string, err error) {
			l.logger.Debug("series sidecar skipped", logging.String("sidecar", p), logging.Error(err))
		},
	})
}

// HasChanged implements DetectsChange: true only for items tagged with the
// provider id whose sidecar was written after the item was last saved.
func (l *Local) HasChanged(item library.Item) bool {
	providerID, _ := item.ProviderID(media.ProviderKey)
	if strings.TrimSpace(providerID) == "" {
		return false
	}
	if l.kind != media.KindSeries {
		return l.locator.HasChanged(item.Path, providerID, item.DateLastSaved)
	}
	meta := l.Locate(item.Path)
	return meta.Exists && meta.ModTime.After(item.DateLastSaved)
}
