// Package ytid extracts YouTube video and channel identifiers from media
// paths.
//
// yt-dlp's default output template embeds the identifier in square brackets,
// e.g. "Title [dQw4w9WgXcQ].mkv" or "Channel [UCuAXFkgsw1L7xaCfnd5JJOw]". A
// token only counts when the bracket sits directly against both ends.
package ytid

import (
	"fmt"
	"regexp"
)

// Kind selects which identifier shape to extract.
type Kind int

const (
	KindVideo Kind = iota
	KindChannel
)

const (
	videoIDLength   = 11
	channelIDLength = 24

	videoURLFormat   = "https://www.youtube.com/watch?v=%s"
	channelURLFormat = "https://www.youtube.com/channel/%s"
)

var (
	videoPattern   = regexp.MustCompile(`\[([a-zA-Z0-9_-]{11})\]`)
	channelPattern = regexp.MustCompile(`\[([a-zA-Z0-9_-]{24})\]`)
)

// VideoID returns the first bracketed 11-character video identifier in path.
func VideoID(path string) (string, bool) {
	return find(videoPattern, path)
}

// ChannelID returns the first bracketed 24-character channel identifier in path.
func ChannelID(path string) (string, bool) {
	return find(channelPattern, path)
}

// Extract dispatches on kind.
func Extract(kind Kind, path string) (string, bool) {
	switch kind {
	case KindChannel:
		return ChannelID(path)
	default:
		return VideoID(path)
	}
}

// Valid reports whether id has the length and alphabet of kind.
func Valid(kind Kind, id string) bool {
	want := videoIDLength
	if kind == KindChannel {
		want = channelIDLength
	}
	if len(id) != want {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isIDByte(id[i]) {
			return false
		}
	}
	return true
}

// VideoURL renders the public watch URL for a video id.
func VideoURL(id string) string {
	return fmt.Sprintf(videoURLFormat, id)
}

// ChannelURL renders the public channel URL for a channel id.
func ChannelURL(id string) string {
	return fmt.Sprintf(channelURLFormat, id)
}

func (k Kind) String() string {
	if k == KindChannel {
		return "channel"
	}
	return "video"
}

func find(pattern *regexp.Regexp, path string) (string, bool) {
	match := pattern.FindStringSubmatch(path)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

func isIDByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-'
}
