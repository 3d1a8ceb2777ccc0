// Package media defines the canonical records ytmeta produces from yt-dlp
// sidecars and the pure functions that build them.
package media

import (
	"fmt"
	"strings"
	"time"
)

// ProviderKey is the provider-id key every record and person is tagged with.
const ProviderKey = "YoutubeMetadata"

// Kind is the media record variant.
type Kind int

const (
	KindMovie Kind = iota
	KindEpisode
	KindSeries
	KindMusicVideo
)

var kindNames = map[Kind]string{
	KindMovie:      "movie",
	KindEpisode:    "episode",
	KindSeries:     "series",
	KindMusicVideo: "musicvideo",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names produced by Kind.String plus a few aliases.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return KindMovie, nil
	case "episode":
		return KindEpisode, nil
	case "series", "show", "channel":
		return KindSeries, nil
	case "musicvideo", "music-video", "music":
		return KindMusicVideo, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q", value)
	}
}

// PersonKind is the role a person plays in a record.
type PersonKind string

const (
	PersonDirector PersonKind = "Director"
	PersonActor    PersonKind = "Actor"
)

// Person is a credited participant. For YouTube media this is always the
// uploading channel.
type Person struct {
	Name        string            `json:"name"`
	Kind        PersonKind        `json:"kind"`
	ProviderIDs map[string]string `json:"provider_ids,omitempty"`
}

// Thumbnail is passed through from the sidecar without validation.
type Thumbnail struct {
	URL        string `json:"url"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	ID         string `json:"id,omitempty"`
}

// Record is the canonical media record. Optional numeric and date fields are
// pointers so "unset" stays distinguishable from zero.
type Record struct {
	Kind              Kind              `json:"-"`
	Name              string            `json:"name"`
	Overview          string            `json:"overview,omitempty"`
	ProductionYear    *int              `json:"production_year,omitempty"`
	PremiereDate      *time.Time        `json:"premiere_date,omitempty"`
	ProviderIDs       map[string]string `json:"provider_ids,omitempty"`
	IndexNumber       *int              `json:"index_number,omitempty"`
	ParentIndexNumber *int              `json:"parent_index_number,omitempty"`
	Album             string            `json:"album,omitempty"`
	Artists           []string          `json:"artists,omitempty"`
	Thumbnails        []Thumbnail       `json:"thumbnails,omitempty"`
}

// ProviderID returns the record's id under ProviderKey.
func (r *Record) ProviderID() string {
	if r == nil {
		return ""
	}
	return r.ProviderIDs[ProviderKey]
}

// Result is what a lookup returns. HasMetadata is false when nothing could be
// produced; Item and People are then empty.
type Result struct {
	HasMetadata bool     `json:"has_metadata"`
	Item        *Record  `json:"item,omitempty"`
	People      []Person `json:"people,omitempty"`
}

// Empty is the no-metadata result.
func Empty() Result {
	return Result{}
}
