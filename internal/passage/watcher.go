package passage

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a passage file when it changes on disk and hands the new
// set to its callback. Editors that write via rename are handled by
// watching the parent directory.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	onReload func([]Passage)
	logger   *log.Logger
	done     chan struct{}
}

// NewWatcher watches path and calls onReload with freshly loaded passages
// after each change. Loads that fail are logged and skipped; the previous
// set stays live.
func NewWatcher(path string, onReload func([]Passage)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close() //nolint:errcheck
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:     path,
		fw:       fw,
		onReload: onReload,
		logger:   log.Default().WithPrefix("passage"),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			passages, err := Load(w.path)
			if err != nil {
				w.logger.Warn("reload failed, keeping previous passages",
					"path", w.path, "error", err)
				continue
			}
			w.logger.Info("passages reloaded", "path", w.path, "count", len(passages))
			w.onReload(passages)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
