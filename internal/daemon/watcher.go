package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ytmeta/internal/logging"
	"ytmeta/internal/sidecar"
)

// sidecarWatcher fires onChange once per quiet period after *.info.json
// files are created, written, or renamed into the watched trees.
type sidecarWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

func newSidecarWatcher(roots []string, debounce time.Duration, onChange func(), logger *slog.Logger) (*sidecarWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &sidecarWatcher{
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *sidecarWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Debug("skipping unwatchable directory", logging.String(logging.FieldPath, path), logging.Error(err))
		}
		return nil
	})
}

func (w *sidecarWatcher) start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

func (w *sidecarWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sidecar watcher error", logging.Error(err))
		}
	}
}

func (w *sidecarWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Debug("watch new directory failed", logging.String(logging.FieldPath, event.Name), logging.Error(err))
			}
			return
		}
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(strings.ToLower(base), sidecar.Suffix) {
		return
	}
	w.logger.Debug("sidecar changed", logging.String(logging.FieldPath, event.Name))
	w.schedule()
}

func (w *sidecarWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *sidecarWatcher) close() {
	_ = w.watcher.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}
