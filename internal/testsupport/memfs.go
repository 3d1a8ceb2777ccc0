package testsupport

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"ytmeta/internal/fileutil"
)

type memEntry struct {
	data    []byte
	isDir   bool
	modTime time.Time
}

// MemFS is an in-memory fileutil.FS used to simulate media directories.
// Parent directories are created implicitly when files are added.
type MemFS struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// NewMemFS returns an empty in-memory filesystem rooted at "/".
func NewMemFS() *MemFS {
	return &MemFS{entries: map[string]memEntry{"/": {isDir: true}}}
}

// AddFile stores data at path with the given modification time.
func (m *MemFS) AddFile(path string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.ensureParents(path)
	m.entries[path] = memEntry{data: append([]byte(nil), data...), modTime: modTime}
}

// AddDir creates an empty directory.
func (m *MemFS) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.ensureParents(path)
	m.entries[path] = memEntry{isDir: true}
}

func (m *MemFS) ensureParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, ok := m.entries[dir]; !ok {
			m.entries[dir] = memEntry{isDir: true}
		}
		if dir == "/" || dir == "." {
			return
		}
	}
}

func (m *MemFS) Stat(path string) fileutil.Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	entry, ok := m.entries[path]
	if !ok {
		return fileutil.Missing(path)
	}
	return m.meta(path, entry)
}

func (m *MemFS) ReadDir(dir string) ([]fileutil.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir = filepath.Clean(dir)
	entry, ok := m.entries[dir]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	if !entry.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: errors.New("not a directory")}
	}
	return m.children(dir), nil
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path = filepath.Clean(path)
	entry, ok := m.entries[path]
	if !ok || entry.isDir {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), entry.data...), nil
}

func (m *MemFS) Walk(root string, fn fileutil.WalkFunc) error {
	root = filepath.Clean(root)
	m.mu.RLock()
	entry, ok := m.entries[root]
	m.mu.RUnlock()
	if !ok || !entry.isDir {
		return &fs.PathError{Op: "walk", Path: root, Err: fs.ErrNotExist}
	}
	err := m.walk(root, fn)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (m *MemFS) walk(dir string, fn fileutil.WalkFunc) error {
	m.mu.RLock()
	children := m.children(dir)
	m.mu.RUnlock()
	for _, child := range children {
		err := fn(child)
		if child.IsDir {
			if errors.Is(err, fs.SkipDir) {
				continue
			}
			if err != nil {
				return err
			}
			if err := m.walk(child.Path, fn); err != nil {
				return err
			}
			continue
		}
		if errors.Is(err, fs.SkipDir) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *MemFS) children(dir string) []fileutil.Metadata {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var out []fileutil.Metadata
	for path, entry := range m.entries {
		if path == dir || !strings.HasPrefix(path, prefix) {
			continue
		}
		if strings.Contains(path[len(prefix):], "/") {
			continue
		}
		out = append(out, m.meta(path, entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemFS) meta(path string, entry memEntry) fileutil.Metadata {
	return fileutil.Metadata{
		Path:    path,
		Name:    filepath.Base(path),
		Exists:  true,
		IsDir:   entry.isDir,
		Size:    int64(len(entry.data)),
		ModTime: entry.modTime,
	}
}
