package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cast"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/services"
)

// Suffix is the file name suffix yt-dlp uses for metadata sidecars.
const Suffix = ".info.json"

// Thumbnail is one entry of the sidecar thumbnails list.
type Thumbnail struct {
	URL        string `json:"url"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	ID         string `json:"id,omitempty"`
}

// Record is the subset of a yt-dlp .info.json document ytmeta consumes.
// Every field is optional.
type Record struct {
	ID          string      `json:"id,omitempty"`
	UploaderID  string      `json:"uploader_id,omitempty"`
	Uploader    string      `json:"uploader,omitempty"`
	UploadDate  string      `json:"upload_date,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	ChannelID   string      `json:"channel_id,omitempty"`
	Track       string      `json:"track,omitempty"`
	Artist      string      `json:"artist,omitempty"`
	Album       string      `json:"album,omitempty"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
}

// Decode parses a sidecar document. yt-dlp is not consistent about scalar
// types across extractors (ids and dates occasionally arrive as numbers,
// absent values as null), so each field is coerced individually; a field
// that cannot be coerced is left empty. Anything that is not a JSON object is
// rejected.
func Decode(data []byte) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "sidecar", "decode", "invalid json", err)
	}
	if raw == nil {
		return Record{}, services.Wrap(services.ErrValidation, "sidecar", "decode", "document is not an object", nil)
	}

	rec := Record{
		ID:          str(raw, "id"),
		UploaderID:  str(raw, "uploader_id"),
		Uploader:    str(raw, "uploader"),
		UploadDate:  str(raw, "upload_date"),
		Title:       str(raw, "title"),
		Description: str(raw, "description"),
		ChannelID:   str(raw, "channel_id"),
		Track:       str(raw, "track"),
		Artist:      str(raw, "artist"),
		Album:       str(raw, "album"),
		Thumbnail:   str(raw, "thumbnail"),
	}
	if list, err := cast.ToSliceE(raw["thumbnails"]); err == nil {
		for _, entry := range list {
			fields, err := cast.ToStringMapE(entry)
			if err != nil {
				continue
			}
			rec.Thumbnails = append(rec.Thumbnails, Thumbnail{
				URL:        str(fields, "url"),
				Width:      cast.ToInt(fields["width"]),
				Height:     cast.ToInt(fields["height"]),
				Resolution: str(fields, "resolution"),
				ID:         str(fields, "id"),
			})
		}
	}
	return rec, nil
}

func str(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

// Read loads and decodes the sidecar at path.
func Read(fsys fileutil.FS, path string) (Record, error) {
	if fsys == nil {
		fsys = fileutil.OS{}
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, services.Wrap(services.ErrNotFound, "sidecar", "read", path, err)
		}
		return Record{}, services.Wrap(services.ErrTransient, "sidecar", "read", path, err)
	}
	rec, err := Decode(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}
