package media

import (
	"fmt"
	"strings"
	"time"

	"ytmeta/internal/sidecar"
)

const uploadDateLayout = "20060102"

// ParseUploadDate parses a yt-dlp YYYYMMDD upload date as a UTC midnight.
func ParseUploadDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) != len(uploadDateLayout) {
		return time.Time{}, false
	}
	parsed, err := time.Parse(uploadDateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// ToMovie maps a sidecar to a movie credited to the uploader as both
// director and actor.
func ToMovie(rec sidecar.Record, id string) Result {
	item := base(KindMovie, rec, id)
	return Result{
		HasMetadata: true,
		Item:        item,
		People: []Person{
			uploader(rec, id, PersonDirector),
			uploader(rec, id, PersonActor),
		},
	}
}

// ToEpisode maps a sidecar to an episode with placeholder indices; the
// indexer assigns real ones later.
func ToEpisode(rec sidecar.Record, id string) Result {
	item := base(KindEpisode, rec, id)
	item.IndexNumber = intPtr(1)
	item.ParentIndexNumber = intPtr(1)
	return directed(item, rec, id)
}

// ToSeries maps a channel sidecar to a series.
func ToSeries(rec sidecar.Record, id string) Result {
	return directed(base(KindSeries, rec, id), rec, id)
}

// ToMusicVideo maps a sidecar to a music video. The track name stands in for
// a missing title.
func ToMusicVideo(rec sidecar.Record, id string) Result {
	item := base(KindMusicVideo, rec, id)
	if item.Name == "" {
		item.Name = rec.Track
	}
	item.Album = rec.Album
	if rec.Artist != "" {
		item.Artists = []string{rec.Artist}
	}
	return directed(item, rec, id)
}

// Map dispatches on kind.
func Map(kind Kind, rec sidecar.Record, id string) (Result, error) {
	switch kind {
	case KindMovie:
		return ToMovie(rec, id), nil
	case KindEpisode:
		return ToEpisode(rec, id), nil
	case KindSeries:
		return ToSeries(rec, id), nil
	case KindMusicVideo:
		return ToMusicVideo(rec, id), nil
	default:
		return Result{}, fmt.Errorf("map sidecar: unsupported kind %s", kind)
	}
}

func base(kind Kind, rec sidecar.Record, id string) *Record {
	item := &Record{
		Kind:        kind,
		Name:        rec.Title,
		Overview:    rec.Description,
		ProviderIDs: map[string]string{ProviderKey: id},
	}
	if date, ok := ParseUploadDate(rec.UploadDate); ok {
		item.PremiereDate = &date
		item.ProductionYear = intPtr(date.Year())
	}
	if len(rec.Thumbnails) > 0 {
		item.Thumbnails = make([]Thumbnail, len(rec.Thumbnails))
		for i, thumb := range rec.Thumbnails {
			item.Thumbnails[i] = Thumbnail(thumb)
		}
	}
	return item
}

func directed(item *Record, rec sidecar.Record, id string) Result {
	return Result{
		HasMetadata: true,
		Item:        item,
		People:      []Person{uploader(rec, id, PersonDirector)},
	}
}

// uploader credits the uploading channel. The channel id from the sidecar
// identifies the person; the record id is used when the sidecar has none.
func uploader(rec sidecar.Record, id string, kind PersonKind) Person {
	personID := rec.ChannelID
	if personID == "" {
		personID = id
	}
	return Person{
		Name:        rec.Uploader,
		Kind:        kind,
		ProviderIDs: map[string]string{ProviderKey: personID},
	}
}

func intPtr(v int) *int {
	return &v
}
