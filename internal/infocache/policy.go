package infocache

import (
	"time"

	"ytmeta/internal/fileutil"
)

// Policy decides whether a cached sidecar can be used without refetching.
type Policy interface {
	Fresh(meta fileutil.Metadata, now time.Time) bool
}

// TTL treats a sidecar as fresh while its age does not exceed the duration.
// A missing file is never fresh.
type TTL time.Duration

func (t TTL) Fresh(meta fileutil.Metadata, now time.Time) bool {
	if !meta.Exists || meta.IsDir {
		return false
	}
	return now.Sub(meta.ModTime) <= time.Duration(t)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(meta fileutil.Metadata, now time.Time) bool

func (f PolicyFunc) Fresh(meta fileutil.Metadata, now time.Time) bool {
	return f(meta, now)
}

// Expired treats every entry as stale so each lookup refetches.
var Expired Policy = PolicyFunc(func(fileutil.Metadata, time.Time) bool { return false })
