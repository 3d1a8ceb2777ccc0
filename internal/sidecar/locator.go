package sidecar

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/logging"
)

// Locator finds the sidecar that belongs to a media path.
type Locator struct {
	fs     fileutil.FS
	logger *slog.Logger
}

// NewLocator builds a Locator. A nil fs uses the host filesystem and a nil
// logger discards output.
func NewLocator(fsys fileutil.FS, logger *slog.Logger) *Locator {
	if fsys == nil {
		fsys = fileutil.OS{}
	}
	return &Locator{fs: fsys, logger: logging.NewComponentLogger(logger, "sidecar")}
}

// FS returns the filesystem the locator reads from.
func (l *Locator) FS() fileutil.FS {
	return l.fs
}

// Locate resolves the sidecar for mediaPath. A sibling named after the media
// file wins; otherwise the only *.info.json in the directory is used. With no
// candidate, or more than one, the returned handle has Exists == false.
func (l *Locator) Locate(mediaPath string) fileutil.Metadata {
	dir, base := splitMediaPath(l.fs, mediaPath)
	specific := filepath.Join(dir, base+Suffix)
	if meta := l.fs.Stat(specific); meta.Exists && !meta.IsDir {
		l.logger.Debug("sidecar matched by name", logging.String(logging.FieldPath, meta.Path))
		return meta
	}

	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		l.logger.Debug("sidecar directory unreadable", logging.String(logging.FieldPath, dir), logging.Error(err))
		return fileutil.Missing(specific)
	}
	var candidates []fileutil.Metadata
	for _, entry := range entries {
		if !entry.IsDir && strings.HasSuffix(entry.Name, Suffix) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 1 {
		l.logger.Debug("sidecar matched as sole info file", logging.String(logging.FieldPath, candidates[0].Path))
		return candidates[0]
	}
	l.logger.Debug("no unambiguous sidecar",
		logging.String(logging.FieldPath, dir),
		logging.Int("candidates", len(candidates)),
	)
	return fileutil.Missing(specific)
}

// HasChanged reports whether the sidecar for mediaPath was written after
// lastSaved. Items that were never tagged with a provider id are not ours and
// always report false.
func (l *Locator) HasChanged(mediaPath, providerID string, lastSaved time.Time) bool {
	if strings.TrimSpace(providerID) == "" {
		return false
	}
	meta := l.Locate(mediaPath)
	return meta.Exists && meta.ModTime.After(lastSaved)
}

// splitMediaPath returns the directory to search and the base name used for
// the exact-match candidate. A directory is searched itself and contributes
// its own name.
func splitMediaPath(fsys fileutil.FS, mediaPath string) (string, string) {
	cleaned := filepath.Clean(mediaPath)
	name := filepath.Base(cleaned)
	if meta := fsys.Stat(cleaned); meta.Exists && meta.IsDir {
		return cleaned, name
	}
	return filepath.Dir(cleaned), strings.TrimSuffix(name, filepath.Ext(name))
}
