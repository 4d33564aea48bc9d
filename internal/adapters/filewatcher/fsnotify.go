// Package filewatcher turns files dropped into an inbox directory into resume
// uploads.
package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify. It watches the
// root and every directory directly below it, adding new subdirectories as
// they appear.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // lower case, with dot
	logger     *zap.Logger
}

// NewFSNotifyWatcher creates a watcher filtering on extensions.
func NewFSNotifyWatcher(extensions []string, log *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".pdf", ".docx", ".txt", ".md"}
	}
	normalized := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: normalized,
		logger:     log.With(zap.String("component", "fswatcher")),
	}, nil
}

// Watch starts monitoring dir and its immediate subdirectories.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.watcher.Add(filepath.Join(dir, e.Name())); err != nil {
				return nil, err
			}
		}
	}

	root := filepath.Clean(dir)
	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(event.Name) == root {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if !w.addUserDir(ctx, event.Name, events) {
							return
						}
						continue
					}
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = ports.FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = ports.FileModified
				case event.Op&fsnotify.Remove == fsnotify.Remove:
					op = ports.FileDeleted
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	return events, nil
}

// addUserDir watches a new subdirectory and reports files that landed in it
// before the watch was in place. Returns false once ctx is done.
func (w *FSNotifyWatcher) addUserDir(ctx context.Context, dir string, events chan<- ports.FileEvent) bool {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("watching new directory", zap.String("dir", dir), zap.Error(err))
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() || !w.isWatchedExtension(p) {
			continue
		}
		select {
		case events <- ports.FileEvent{Path: p, Operation: ports.FileCreated}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
