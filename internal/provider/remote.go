package provider

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/infocache"
	"ytmeta/internal/logging"
	"ytmeta/internal/media"
	"ytmeta/internal/services"
	"ytmeta/internal/services/ytdlp"
	"ytmeta/internal/sidecar"
	"ytmeta/internal/ytid"
)

// SeriesInfo identifies a series to look up remotely.
type SeriesInfo struct {
	Name string
	Path string
}

// RemoteSeries resolves a series by channel name through yt-dlp, caching the
// channel sidecar. When yt-dlp cannot run, sidecars under the series
// directory are used instead.
type RemoteSeries struct {
	fetcher ytdlp.Fetcher
	cache   *infocache.Cache
	fs      fileutil.FS
	logger  *slog.Logger
}

// NewRemoteSeries builds a remote series provider. A nil fetcher behaves as
// if yt-dlp were not installed.
func NewRemoteSeries(fetcher ytdlp.Fetcher, cache *infocache.Cache, fsys fileutil.FS, logger *slog.Logger) *RemoteSeries {
	if fsys == nil {
		fsys = fileutil.OS{}
	}
	return &RemoteSeries{
		fetcher: fetcher,
		cache:   cache,
		fs:      fsys,
		logger:  logging.NewComponentLogger(logger, "provider").With(logging.String("kind", media.KindSeries.String())),
	}
}

// GetMetadata returns the series record for info.
func (r *RemoteSeries) GetMetadata(ctx context.Context, info SeriesInfo) (res media.Result) {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("name", info.Name),
		logging.String(logging.FieldPath, info.Path),
	)
	defer guard(logger, media.KindSeries, info.Path, &res)

	name := strings.TrimSpace(info.Name)
	if name == "" {
		logger.Debug("series has no name")
		return record(media.KindSeries, media.Empty())
	}
	if cancelled(ctx) {
		return media.Empty()
	}

	rec, ok := r.cachedOrFetched(ctx, name, info.Path, logger)
	if !ok {
		if !cancelled(ctx) {
			logging.WarnWithContext(logger, "no channel metadata found", "series_metadata_missing",
				logging.String(logging.FieldErrorHint, "install yt-dlp or place the channel .info.json in the series folder"),
				logging.String(logging.FieldImpact, "series keeps its existing metadata"),
			)
		}
		return record(media.KindSeries, media.Empty())
	}

	id := rec.ChannelID
	if id == "" {
		id, _ = ytid.ChannelID(info.Path)
	}
	if id == "" {
		logging.WarnWithContext(logger, "channel sidecar lacks channel id", "series_metadata_invalid",
			logging.String(logging.FieldErrorHint, "refetch the channel info with yt-dlp"),
			logging.String(logging.FieldImpact, "series keeps its existing metadata"),
		)
		return record(media.KindSeries, media.Empty())
	}
	return record(media.KindSeries, media.ToSeries(rec, id))
}

func (r *RemoteSeries) cachedOrFetched(ctx context.Context, name, root string, logger *slog.Logger) (sidecar.Record, bool) {
	if r.cache == nil {
		return r.scan(ctx, root, logger)
	}
	if !r.cache.Fresh(name) {
		logger.Debug("cached channel sidecar stale", logging.String("cache_path", r.cache.Path(name)))
		err := r.refresh(ctx, name)
		switch {
		case errors.Is(err, services.ErrToolUnavailable):
			logging.WarnWithContext(logger, "yt-dlp unavailable; scanning series folder", "ytdlp_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install yt-dlp or set ytdlp.binary"),
				logging.String(logging.FieldImpact, "metadata comes from local sidecars only"),
			)
			return r.scan(ctx, root, logger)
		case err != nil:
			logging.WarnWithContext(logger, "channel fetch failed", "channel_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run ytmeta doctor and check yt-dlp output"),
				logging.String(logging.FieldImpact, "a stale cached copy is used when present"),
			)
		}
	}
	rec, err := r.cache.Read(name)
	if err != nil {
		logger.Debug("cached channel sidecar unreadable", logging.Error(err))
		return sidecar.Record{}, false
	}
	return rec, true
}

func (r *RemoteSeries) refresh(ctx context.Context, name string) error {
	if r.fetcher == nil {
		return services.Wrap(services.ErrToolUnavailable, "provider", "refresh series", "no fetcher configured", nil)
	}
	channelID, err := r.fetcher.SearchChannel(ctx, name)
	if err != nil {
		return err
	}
	return r.fetcher.FetchChannelInfo(ctx, channelID, name)
}

// scan returns the first parseable sidecar anywhere under root.
func (r *RemoteSeries) scan(ctx context.Context, root string, logger *slog.Logger) (sidecar.Record, bool) {
	if strings.TrimSpace(root) == "" {
		return sidecar.Record{}, false
	}
	found, ok := sidecar.FirstParseable(ctx, r.fs, root, sidecar.ScanOptions{
		OnSkip: func(path string, err error) {
			logging.ErrorWithContext(logger, "sidecar unreadable during fallback scan", "sidecar_unreadable",
				logging.String("sidecar", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove or re-download the broken info file"),
			)
		},
	})
	if ok {
		logger.Info("series metadata read from local sidecar", logging.String("sidecar", found.Path))
	}
	return found.Record, ok
}

// RemoteVideo looks up a single video by the id embedded in its path,
// caching the sidecar by video id. A local sidecar is used when yt-dlp
// cannot run.
type RemoteVideo struct {
	kind    media.Kind
	fetcher ytdlp.Fetcher
	cache   *infocache.Cache
	local   *Local
	logger  *slog.Logger
}

// NewRemoteVideo builds a remote provider for a video kind (movie, episode,
// or music video).
func NewRemoteVideo(kind media.Kind, fetcher ytdlp.Fetcher, cache *infocache.Cache, fsys fileutil.FS, logger *slog.Logger) *RemoteVideo {
	return &RemoteVideo{
		kind:    kind,
		fetcher: fetcher,
		cache:   cache,
		local:   NewLocal(kind, fsys, logger),
		logger:  logging.NewComponentLogger(logger, "provider").With(logging.String("kind", kind.String())),
	}
}

// GetMetadata returns the record for the video at path.
func (r *RemoteVideo) GetMetadata(ctx context.Context, path string) (res media.Result) {
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldPath, path))
	defer guard(logger, r.kind, path, &res)

	if r.kind == media.KindSeries {
		logger.Debug("series lookups use RemoteSeries")
		return media.Empty()
	}
	id, ok := ytid.VideoID(path)
	if !ok {
		logger.Debug("no video id in path")
		return record(r.kind, media.Empty())
	}
	if cancelled(ctx) {
		return media.Empty()
	}
	if r.cache == nil {
		return r.local.GetMetadata(ctx, path)
	}

	if !r.cache.Fresh(id) {
		err := r.fetch(ctx, id)
		if errors.Is(err, services.ErrToolUnavailable) {
			logger.Debug("yt-dlp unavailable; using local sidecar", logging.Error(err))
			return r.local.GetMetadata(ctx, path)
		}
		if err != nil {
			logging.WarnWithContext(logger, "video fetch failed", "video_fetch_failed",
				logging.Error(err),
				logging.String("video_id", id),
				logging.String(logging.FieldErrorHint, "check the video is public and yt-dlp is current"),
				logging.String(logging.FieldImpact, "a stale cached copy is used when present"),
			)
		}
	}
	rec, err := r.cache.Read(id)
	if err != nil {
		logger.Debug("cached video sidecar unreadable; trying local sidecar", logging.Error(err))
		return r.local.GetMetadata(ctx, path)
	}
	return record(r.kind, r.local.Map(rec, id))
}

func (r *RemoteVideo) fetch(ctx context.Context, id string) error {
	if r.fetcher == nil {
		return services.Wrap(services.ErrToolUnavailable, "provider", "refresh video", "no fetcher configured", nil)
	}
	return r.fetcher.FetchVideoInfo(ctx, id)
}
