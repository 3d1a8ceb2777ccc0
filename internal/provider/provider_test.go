package provider_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ytmeta/internal/infocache"
	"ytmeta/internal/library"
	"ytmeta/internal/media"
	"ytmeta/internal/provider"
	"ytmeta/internal/services"
	"ytmeta/internal/testsupport"
)

const (
	videoID   = "dQw4w9WgXcQ"
	channelID = "UCabcdefghijklmnopqrstuv"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	cache     *infocache.Cache
	body      string
	searchErr error
	fetchErr  error
	panicMsg  string
	searches  int
	fetches   int
}

func (f *fakeFetcher) SearchChannel(_ context.Context, _ string) (string, error) {
	f.searches++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return channelID, nil
}

func (f *fakeFetcher) FetchChannelInfo(_ context.Context, _, name string) error {
	f.fetches++
	if f.fetchErr != nil {
		return f.fetchErr
	}
	return f.install(name)
}

func (f *fakeFetcher) FetchVideoInfo(_ context.Context, id string) error {
	f.fetches++
	if f.fetchErr != nil {
		return f.fetchErr
	}
	return f.install(id)
}

func (f *fakeFetcher) install(key string) error {
	tmp, err := os.CreateTemp("", "ytmeta-fake-*.info.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(f.body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return f.cache.Install(key, tmp.Name())
}

var unavailable = services.Wrap(services.ErrToolUnavailable, "ytdlp", "search channel", "binary not found", nil)

func TestLocalEpisodeFromSibling(t *testing.T) {
	fsys := testsupport.NewMemFS()
	path := "/tv/Chan/Season 1/Cool Video [" + videoID + "].mkv"
	fsys.AddFile(path, nil, epoch)
	fsys.AddFile("/tv/Chan/Season 1/Cool Video ["+videoID+"].info.json",
		[]byte(`{"title":"Cool Video","uploader":"Someone","upload_date":"20211215","channel_id":"12345"}`), epoch)

	res := provider.NewLocal(media.KindEpisode, fsys, nil).GetMetadata(context.Background(), path)
	if !res.HasMetadata {
		t.Fatal("expected metadata")
	}
	if res.Item.Name != "Cool Video" || res.Item.ProviderID() != videoID {
		t.Fatalf("unexpected record %+v", res.Item)
	}
	if *res.Item.IndexNumber != 1 || *res.Item.ParentIndexNumber != 1 {
		t.Fatalf("expected placeholder indices, got %d/%d", *res.Item.IndexNumber, *res.Item.ParentIndexNumber)
	}
	if len(res.People) != 1 || res.People[0].Name != "Someone" {
		t.Fatalf("unexpected people %+v", res.People)
	}
}

func TestLocalVideoIDFallsBackToSidecar(t *testing.T) {
	fsys := testsupport.NewMemFS()
	fsys.AddFile("/movies/clip.mkv", nil, epoch)
	fsys.AddFile("/movies/clip.info.json", []byte(`{"id":"`+videoID+`","title":"Clip"}`), epoch)

	res := provider.NewLocal(media.KindMovie, fsys, nil).GetMetadata(context.Background(), "/movies/clip.mkv")
	if !res.HasMetadata || res.Item.ProviderID() != videoID {
		t.Fatalf("expected sidecar id fallback, got %+v", res)
	}
	if len(res.People) != 2 {
		t.Fatalf("expected director and actor, got %+v", res.People)
	}
}

func TestLocalMissingOrBrokenSidecar(t *testing.T) {
	fsys := testsupport.NewMemFS()
	fsys.AddFile("/tv/a/none ["+videoID+"].mkv", nil, epoch)
	fsys.AddFile("/tv/b/broken ["+videoID+"].mkv", nil, epoch)
	fsys.AddFile("/tv/b/broken ["+videoID+"].info.json", []byte(`{not json`), epoch)

	local := provider.NewLocal(media.KindEpisode, fsys, nil)
	for _, path := range []string{"/tv/a/none [" + videoID + "].mkv", "/tv/b/broken [" + videoID + "].mkv"} {
		if res := local.GetMetadata(context.Background(), path); res.HasMetadata {
			t.Fatalf("expected no metadata for %s", path)
		}
	}
}

func TestLocalSeriesSearchesTree(t *testing.T) {
	fsys := testsupport.NewMemFS()
	root := "/tv/Channel"
	fsys.AddFile(root+"/Season 1/ep ["+videoID+"].info.json", []byte(`{"title":"ep"}`), epoch)
	fsys.AddFile(root+"/Channel ["+channelID+"].info.json", []byte(`{"title":"Channel","uploader":"Chan","channel_id":"`+channelID+`"}`), epoch)

	local := provider.NewLocal(media.KindSeries, fsys, nil)
	res := local.GetMetadata(context.Background(), root)
	if !res.HasMetadata || res.Item.Name != "Channel" || res.Item.ProviderID() != channelID {
		t.Fatalf("unexpected series result %+v", res)
	}

	item := library.Item{Path: root, ProviderIDs: map[string]string{media.ProviderKey: channelID}, DateLastSaved: epoch.Add(-time.Hour)}
	if !local.HasChanged(item) {
		t.Fatal("expected change when sidecar is newer than last save")
	}
	item.DateLastSaved = epoch.Add(time.Hour)
	if local.HasChanged(item) {
		t.Fatal("expected no change when item saved after sidecar")
	}
}

func TestLocalHasChangedRequiresProviderID(t *testing.T) {
	fsys := testsupport.NewMemFS()
	fsys.AddFile("/tv/x ["+videoID+"].mkv", nil, epoch)
	fsys.AddFile("/tv/x ["+videoID+"].info.json", []byte(`{}`), epoch)
	local := provider.NewLocal(media.KindEpisode, fsys, nil)

	item := library.Item{Path: "/tv/x [" + videoID + "].mkv", DateLastSaved: epoch.Add(-time.Hour)}
	if local.HasChanged(item) {
		t.Fatal("untagged items must never report change")
	}
	item.ProviderIDs = map[string]string{media.ProviderKey: videoID}
	if !local.HasChanged(item) {
		t.Fatal("expected change for tagged item")
	}
	item.DateLastSaved = epoch
	if local.HasChanged(item) {
		t.Fatal("equal timestamps are not a change")
	}
}

func TestRemoteSeriesFetchesWhenStale(t *testing.T) {
	cache := infocache.New(t.TempDir(), infocache.TTL(time.Hour), nil)
	fetcher := &fakeFetcher{cache: cache, body: `{"title":"Some Channel","uploader":"Some","channel_id":"` + channelID + `"}`}
	remote := provider.NewRemoteSeries(fetcher, cache, testsupport.NewMemFS(), nil)

	res := remote.GetMetadata(context.Background(), provider.SeriesInfo{Name: "Some Channel", Path: "/tv/Some Channel"})
	if !res.HasMetadata || res.Item.ProviderID() != channelID {
		t.Fatalf("unexpected result %+v", res)
	}
	if fetcher.searches != 1 || fetcher.fetches != 1 {
		t.Fatalf("expected one search and fetch, got %d/%d", fetcher.searches, fetcher.fetches)
	}

	again := remote.GetMetadata(context.Background(), provider.SeriesInfo{Name: "Some Channel", Path: "/tv/Some Channel"})
	if fetcher.searches != 1 {
		t.Fatalf("expected fresh cache to skip refetch, got %d searches", fetcher.searches)
	}
	if diff := cmp.Diff(res, again); diff != "" {
		t.Fatalf("cached result differs (-first +second):\n%s", diff)
	}
}

func TestRemoteSeriesEmptyName(t *testing.T) {
	fetcher := &fakeFetcher{}
	remote := provider.NewRemoteSeries(fetcher, infocache.New(t.TempDir(), nil, nil), nil, nil)
	if res := remote.GetMetadata(context.Background(), provider.SeriesInfo{Name: "  "}); res.HasMetadata {
		t.Fatal("expected no metadata for blank name")
	}
	if fetcher.searches != 0 {
		t.Fatal("blank name must not search")
	}
}

func TestRemoteSeriesFallsBackToScan(t *testing.T) {
	fsys := testsupport.NewMemFS()
	fsys.AddFile("/tv/Chan/a.info.json", []byte(`[broken`), epoch)
	fsys.AddFile("/tv/Chan/b.info.json", []byte(`{"title":"Chan","channel_id":"`+channelID+`"}`), epoch)
	cache := infocache.New(t.TempDir(), nil, nil)
	fetcher := &fakeFetcher{cache: cache, searchErr: unavailable}

	res := provider.NewRemoteSeries(fetcher, cache, fsys, nil).GetMetadata(context.Background(), provider.SeriesInfo{Name: "Chan", Path: "/tv/Chan"})
	if !res.HasMetadata || res.Item.Name != "Chan" || res.Item.ProviderID() != channelID {
		t.Fatalf("expected fallback sidecar, got %+v", res)
	}
}

func TestRemoteSeriesNilFetcherIsUnavailable(t *testing.T) {
	fsys := testsupport.NewMemFS()
	fsys.AddFile("/tv/Chan/x.info.json", []byte(`{"title":"Chan","channel_id":"`+channelID+`"}`), epoch)
	res := provider.NewRemoteSeries(nil, infocache.New(t.TempDir(), nil, nil), fsys, nil).
		GetMetadata(context.Background(), provider.SeriesInfo{Name: "Chan", Path: "/tv/Chan"})
	if !res.HasMetadata {
		t.Fatal("expected scan fallback without a fetcher")
	}
}

func TestRemoteSeriesNothingFound(t *testing.T) {
	cache := infocache.New(t.TempDir(), nil, nil)
	fetcher := &fakeFetcher{cache: cache, searchErr: unavailable}
	res := provider.NewRemoteSeries(fetcher, cache, testsupport.NewMemFS(), nil).
		GetMetadata(context.Background(), provider.SeriesInfo{Name: "Chan", Path: "/tv/Chan"})
	if res.HasMetadata {
		t.Fatal("expected no metadata")
	}
}

func TestRemoteSeriesOtherFetchErrorWithoutCache(t *testing.T) {
	cache := infocache.New(t.TempDir(), nil, nil)
	fetcher := &fakeFetcher{cache: cache, searchErr: errors.New("network down")}
	res := provider.NewRemoteSeries(fetcher, cache, testsupport.NewMemFS(), nil).
		GetMetadata(context.Background(), provider.SeriesInfo{Name: "Chan", Path: "/tv/Chan"})
	if res.HasMetadata {
		t.Fatal("expected no metadata when fetch fails and nothing is cached")
	}
}

func TestRemoteSeriesRecoversPanics(t *testing.T) {
	cache := infocache.New(t.TempDir(), nil, nil)
	fetcher := &fakeFetcher{cache: cache, panicMsg: "boom"}
	res := provider.NewRemoteSeries(fetcher, cache, nil, nil).
		GetMetadata(context.Background(), provider.SeriesInfo{Name: "Chan", Path: t.TempDir()})
	if res.HasMetadata {
		t.Fatal("expected empty result after panic")
	}
}

func TestRemoteVideoFetchesAndMaps(t *testing.T) {
	cache := infocache.New(t.TempDir(), infocache.TTL(time.Hour), nil)
	fetcher := &fakeFetcher{cache: cache, body: `{"track":"FooTrack","album":"Bar","artist":"Someone","uploader":"ankenyr","channel_id":"abc123"}`}
	remote := provider.NewRemoteVideo(media.KindMusicVideo, fetcher, cache, testsupport.NewMemFS(), nil)

	res := remote.GetMetadata(context.Background(), "/music/FooTrack ["+videoID+"].mkv")
	if !res.HasMetadata || res.Item.Name != "FooTrack" || res.Item.Album != "Bar" {
		t.Fatalf("unexpected music video %+v", res.Item)
	}
	if res.People[0].ProviderIDs[media.ProviderKey] != "abc123" {
		t.Fatalf("expected channel id on person, got %+v", res.People[0])
	}
}

func TestRemoteVideoFallsBackToLocal(t *testing.T) {
	fsys := testsupport.NewMemFS()
	path := "/tv/clip [" + videoID + "].mkv"
	fsys.AddFile(path, nil, epoch)
	fsys.AddFile("/tv/clip ["+videoID+"].info.json", []byte(`{"title":"Local"}`), epoch)
	cache := infocache.New(t.TempDir(), nil, nil)
	fetcher := &fakeFetcher{cache: cache, fetchErr: unavailable}

	res := provider.NewRemoteVideo(media.KindEpisode, fetcher, cache, fsys, nil).GetMetadata(context.Background(), path)
	if !res.HasMetadata || res.Item.Name != "Local" {
		t.Fatalf("expected local fallback, got %+v", res)
	}
}

func TestRemoteVideoWithoutID(t *testing.T) {
	fetcher := &fakeFetcher{}
	res := provider.NewRemoteVideo(media.KindMovie, fetcher, infocache.New(t.TempDir(), nil, nil), nil, nil).
		GetMetadata(context.Background(), "/movies/no id.mkv")
	if res.HasMetadata || fetcher.fetches != 0 {
		t.Fatalf("expected no lookup without an id, got %+v (fetches=%d)", res, fetcher.fetches)
	}
}
