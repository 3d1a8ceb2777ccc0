// Package fileutil abstracts the filesystem queries the sidecar locator and
// the remote scan fallback need, so both can run against a simulated tree in
// tests.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Metadata describes a single filesystem entry. A handle for a path that does
// not exist has Exists == false and a zero ModTime.
type Metadata struct {
	Path    string
	Name    string
	Exists  bool
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Missing returns the handle used for paths that could not be found.
func Missing(path string) Metadata {
	return Metadata{Path: path, Name: filepath.Base(path)}
}

// WalkFunc is called for every entry below the walk root, in lexical order.
// Returning fs.SkipDir skips a directory; fs.SkipAll stops the walk.
type WalkFunc func(Metadata) error

// FS is the read-only filesystem surface used across ytmeta.
type FS interface {
	Stat(path string) Metadata
	ReadDir(dir string) ([]Metadata, error)
	ReadFile(path string) ([]byte, error)
	Walk(root string, fn WalkFunc) error
}

// OS implements FS over the host filesystem.
type OS struct{}

func (OS) Stat(path string) Metadata {
	info, err := os.Stat(path)
	if err != nil {
		return Missing(path)
	}
	return fromInfo(path, info)
}

func (OS) ReadDir(dir string) ([]Metadata, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Metadata, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between listing and stat.
			continue
		}
		out = append(out, fromInfo(filepath.Join(dir, entry.Name()), info))
	}
	return out, nil
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) Walk(root string, fn WalkFunc) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(fromInfo(path, info))
	})
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func fromInfo(path string, info fs.FileInfo) Metadata {
	return Metadata{
		Path:    path,
		Name:    info.Name(),
		Exists:  true,
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
