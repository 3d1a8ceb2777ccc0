package media_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ytmeta/internal/media"
	"ytmeta/internal/sidecar"
)

func ptr[T any](v T) *T { return &v }

var premiere = time.Date(2021, 12, 15, 0, 0, 0, 0, time.UTC)

func TestToMovie(t *testing.T) {
	rec := sidecar.Record{
		Title:       "Foo",
		UploadDate:  "20211215",
		Description: "Some movie",
		Uploader:    "ankenyr",
		ChannelID:   "abc123",
	}
	got := media.ToMovie(rec, "id123")
	want := media.Result{
		HasMetadata: true,
		Item: &media.Record{
			Kind:           media.KindMovie,
			Name:           "Foo",
			Overview:       "Some movie",
			ProductionYear: ptr(2021),
			PremiereDate:   &premiere,
			ProviderIDs:    map[string]string{media.ProviderKey: "id123"},
		},
		People: []media.Person{
			{Name: "ankenyr", Kind: media.PersonDirector, ProviderIDs: map[string]string{media.ProviderKey: "abc123"}},
			{Name: "ankenyr", Kind: media.PersonActor, ProviderIDs: map[string]string{media.ProviderKey: "abc123"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected movie (-want +got):\n%s", diff)
	}
}

func TestToEpisodeSetsPlaceholderIndices(t *testing.T) {
	rec := sidecar.Record{
		Uploader:    "Someone",
		UploadDate:  "20211215",
		Title:       "Cool Video",
		Description: "This is the best video.",
		ChannelID:   "12345",
		Thumbnails: []sidecar.Thumbnail{
			{URL: "https://www.something.com", Width: 10, Height: 10, Resolution: "10x10", ID: "id912az"},
		},
	}
	got := media.ToEpisode(rec, "id123")
	want := media.Result{
		HasMetadata: true,
		Item: &media.Record{
			Kind:              media.KindEpisode,
			Name:              "Cool Video",
			Overview:          "This is the best video.",
			ProductionYear:    ptr(2021),
			PremiereDate:      &premiere,
			ProviderIDs:       map[string]string{media.ProviderKey: "id123"},
			IndexNumber:       ptr(1),
			ParentIndexNumber: ptr(1),
			Thumbnails: []media.Thumbnail{
				{URL: "https://www.something.com", Width: 10, Height: 10, Resolution: "10x10", ID: "id912az"},
			},
		},
		People: []media.Person{
			{Name: "Someone", Kind: media.PersonDirector, ProviderIDs: map[string]string{media.ProviderKey: "12345"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected episode (-want +got):\n%s", diff)
	}
}

func TestToMusicVideo(t *testing.T) {
	tests := []struct {
		name     string
		rec      sidecar.Record
		wantName string
	}{
		{
			name:     "title wins",
			rec:      sidecar.Record{Title: "Foo", Track: "FooTrack", Album: "Bar", Artist: "Someone", UploadDate: "20211215", Uploader: "ankenyr", ChannelID: "abc123"},
			wantName: "Foo",
		},
		{
			name:     "track fallback",
			rec:      sidecar.Record{Track: "FooTrack", Album: "Bar", Artist: "Someone", UploadDate: "20211215", Uploader: "ankenyr", ChannelID: "abc123"},
			wantName: "FooTrack",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := media.ToMusicVideo(tc.rec, "id123")
			if got.Item.Name != tc.wantName {
				t.Fatalf("unexpected name %q", got.Item.Name)
			}
			if got.Item.Album != "Bar" {
				t.Fatalf("unexpected album %q", got.Item.Album)
			}
			if diff := cmp.Diff([]string{"Someone"}, got.Item.Artists); diff != "" {
				t.Fatalf("unexpected artists (-want +got):\n%s", diff)
			}
			if len(got.People) != 1 || got.People[0].Kind != media.PersonDirector {
				t.Fatalf("expected a single director, got %+v", got.People)
			}
		})
	}
}

func TestToSeriesUsesChannelForPerson(t *testing.T) {
	got := media.ToSeries(sidecar.Record{Title: "Channel", Uploader: "Channel", ChannelID: "UCabc"}, "UCabc")
	if got.Item.ProviderID() != "UCabc" {
		t.Fatalf("unexpected provider id %q", got.Item.ProviderID())
	}
	if got.Item.IndexNumber != nil {
		t.Fatal("series must not carry an index")
	}
	if len(got.People) != 1 || got.People[0].ProviderIDs[media.ProviderKey] != "UCabc" {
		t.Fatalf("unexpected people %+v", got.People)
	}
}

func TestPersonFallsBackToRecordID(t *testing.T) {
	got := media.ToEpisode(sidecar.Record{Uploader: "Someone"}, "id123")
	if got.People[0].ProviderIDs[media.ProviderKey] != "id123" {
		t.Fatalf("expected fallback to record id, got %+v", got.People[0])
	}
}

func TestMalformedDateIsSoft(t *testing.T) {
	for _, date := range []string{"", "2021121", "20211332", "2021-12-15", "abcdefgh"} {
		got := media.ToEpisode(sidecar.Record{Title: "T", UploadDate: date}, "id")
		if !got.HasMetadata {
			t.Fatalf("date %q: expected metadata", date)
		}
		if got.Item.PremiereDate != nil || got.Item.ProductionYear != nil {
			t.Fatalf("date %q: expected no date fields, got %+v", date, got.Item)
		}
		if got.Item.Name != "T" {
			t.Fatalf("date %q: expected name preserved", date)
		}
	}
}

func TestTitleIsVerbatim(t *testing.T) {
	title := "  Spaces & [brackets] <tags>  "
	if got := media.ToMovie(sidecar.Record{Title: title}, "x").Item.Name; got != title {
		t.Fatalf("expected verbatim title, got %q", got)
	}
}

func TestMapDispatch(t *testing.T) {
	for _, kind := range []media.Kind{media.KindMovie, media.KindEpisode, media.KindSeries, media.KindMusicVideo} {
		got, err := media.Map(kind, sidecar.Record{Title: "T"}, "id")
		if err != nil {
			t.Fatalf("Map(%s) returned error: %v", kind, err)
		}
		if got.Item.Kind != kind {
			t.Fatalf("Map(%s) produced kind %s", kind, got.Item.Kind)
		}
	}
	if _, err := media.Map(media.Kind(42), sidecar.Record{}, "id"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]media.Kind{"movie": media.KindMovie, "Episode": media.KindEpisode, "show": media.KindSeries, "music-video": media.KindMusicVideo} {
		got, err := media.ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := media.ParseKind("podcast"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMappingIsPureAndUnshared(t *testing.T) {
	rec := sidecar.Record{
		Title:      "Song",
		UploadDate: "20211215",
		Uploader:   "Band",
		ChannelID:  "UCband",
		Artist:     "Band",
		Album:      "Album",
		Thumbnails: []sidecar.Thumbnail{{URL: "https://img.example/1.jpg", Width: 10, Height: 10, ID: "0"}},
	}
	for _, kind := range []media.Kind{media.KindMovie, media.KindEpisode, media.KindSeries, media.KindMusicVideo} {
		first, err := media.Map(kind, rec, "id123")
		if err != nil {
			t.Fatalf("Map(%s) returned error: %v", kind, err)
		}
		second, err := media.Map(kind, rec, "id123")
		if err != nil {
			t.Fatalf("Map(%s) returned error: %v", kind, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("Map(%s) not deterministic (-first +second):\n%s", kind, diff)
		}

		first.Item.ProviderIDs[media.ProviderKey] = "changed"
		if len(first.Item.Thumbnails) > 0 {
			first.Item.Thumbnails[0].URL = "changed"
		}
		if len(first.People) > 0 {
			first.People[0].ProviderIDs[media.ProviderKey] = "changed"
		}
		if got := second.Item.ProviderIDs[media.ProviderKey]; got != "id123" {
			t.Fatalf("%s: results share provider ids, got %q", kind, got)
		}
		if len(second.Item.Thumbnails) > 0 && second.Item.Thumbnails[0].URL != "https://img.example/1.jpg" {
			t.Fatalf("%s: results share thumbnails", kind)
		}
		if len(second.People) > 0 && second.People[0].ProviderIDs[media.ProviderKey] != "UCband" {
			t.Fatalf("%s: results share people", kind)
		}
		if rec.Thumbnails[0].URL != "https://img.example/1.jpg" {
			t.Fatalf("%s: mapping aliased the sidecar thumbnails", kind)
		}
	}
}
