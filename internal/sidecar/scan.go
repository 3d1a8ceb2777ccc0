package sidecar

import (
	"context"
	"io/fs"
	"strings"

	"ytmeta/internal/fileutil"
)

// ScanOptions narrows and observes a recursive sidecar scan.
type ScanOptions struct {
	// Match filters candidate paths. Nil accepts every *.info.json.
	Match func(path string) bool
	// OnSkip is called for each candidate that could not be read or parsed.
	OnSkip func(path string, err error)
}

// Found is the result of a successful scan.
type Found struct {
	Path   string
	Record Record
}

// FirstParseable walks root in lexical order and returns the first
// *.info.json that decodes. The walk stops early when ctx is cancelled.
func FirstParseable(ctx context.Context, fsys fileutil.FS, root string, opts ScanOptions) (Found, bool) {
	if fsys == nil {
		fsys = fileutil.OS{}
	}
	var (
		found Found
		ok    bool
	)
	err := fsys.Walk(root, func(meta fileutil.Metadata) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if meta.IsDir || !strings.HasSuffix(meta.Name, Suffix) {
			return nil
		}
		if opts.Match != nil && !opts.Match(meta.Path) {
			return nil
		}
		rec, err := Read(fsys, meta.Path)
		if err != nil {
			if opts.OnSkip != nil {
				opts.OnSkip(meta.Path, err)
			}
			return nil
		}
		found = Found{Path: meta.Path, Record: rec}
		ok = true
		return fs.SkipAll
	})
	if err != nil && opts.OnSkip != nil {
		opts.OnSkip(root, err)
	}
	return found, ok
}
