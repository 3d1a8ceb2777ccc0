package infocache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio/v2"

	"ytmeta/internal/fileutil"
	"ytmeta/internal/logging"
	"ytmeta/internal/sidecar"
	"ytmeta/internal/textutil"
)

const (
	cacheSubdir  = "youtubemetadata"
	sidecarName  = "ytvideo.info.json"
	defaultTTL   = 240 * time.Hour
	installPerms = 0o644
)

// Entry describes one cached sidecar.
type Entry struct {
	Key     string
	Path    string
	ModTime time.Time
	Fresh   bool
}

// Cache stores fetched sidecars under <cache_dir>/youtubemetadata/<key>/.
// Keys are video ids or channel display names.
type Cache struct {
	root   string
	fs     fileutil.FS
	policy Policy
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithFS reads through fsys instead of the host filesystem. Writes always go
// to disk.
func WithFS(fsys fileutil.FS) Option {
	return func(c *Cache) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache rooted below cacheDir. A nil policy uses the default
// ten-day TTL.
func New(cacheDir string, policy Policy, logger *slog.Logger, opts ...Option) *Cache {
	if policy == nil {
		policy = TTL(defaultTTL)
	}
	c := &Cache{
		root:   filepath.Join(cacheDir, cacheSubdir),
		fs:     fileutil.OS{},
		policy: policy,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "infocache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the directory holding all cache entries.
func (c *Cache) Root() string {
	return c.root
}

// Path returns where the sidecar for key lives.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.root, textutil.CacheKey(key), sidecarName)
}

// Stat returns the filesystem handle for key.
func (c *Cache) Stat(key string) fileutil.Metadata {
	return c.fs.Stat(c.Path(key))
}

// Fresh reports whether key is cached and still within policy.
func (c *Cache) Fresh(key string) bool {
	return c.policy.Fresh(c.Stat(key), c.now())
}

// Read decodes the cached sidecar for key.
func (c *Cache) Read(key string) (sidecar.Record, error) {
	return sidecar.Read(c.fs, c.Path(key))
}

// Install atomically moves the sidecar at src into the cache slot for key.
// Readers never observe a partially written file.
func (c *Cache) Install(key, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read fetched sidecar: %w", err)
	}
	if _, err := sidecar.Decode(data); err != nil {
		return fmt.Errorf("fetched sidecar for %q: %w", key, err)
	}
	dst := c.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := renameio.WriteFile(dst, data, installPerms); err != nil {
		return fmt.Errorf("install cached sidecar: %w", err)
	}
	c.logger.Debug("cached sidecar installed",
		logging.String("key", key),
		logging.String(logging.FieldPath, dst),
		logging.Int("bytes", len(data)),
	)
	return nil
}

// List returns every cached entry sorted by modification time, newest first.
func (c *Cache) List() ([]Entry, error) {
	dirs, err := c.fs.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache: %w", err)
	}
	now := c.now()
	entries := make([]Entry, 0, len(dirs))
	for _, dir := range dirs {
		if !dir.IsDir {
			continue
		}
		meta := c.fs.Stat(filepath.Join(dir.Path, sidecarName))
		if !meta.Exists {
			continue
		}
		entries = append(entries, Entry{
			Key:     dir.Name,
			Path:    meta.Path,
			ModTime: meta.ModTime,
			Fresh:   c.policy.Fresh(meta, now),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ModTime.After(entries[j].ModTime) })
	return entries, nil
}

// Prune deletes stale entries and returns how many were removed.
func (c *Cache) Prune() (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if entry.Fresh {
			continue
		}
		if err := os.RemoveAll(filepath.Dir(entry.Path)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Key, err)
		}
		removed++
	}
	if removed > 0 {
		c.logger.Info("stale sidecars pruned", logging.Int("removed", removed))
	}
	return removed, nil
}
