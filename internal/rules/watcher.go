package rules

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invokes a reload callback when any watched pattern file changes.
// Events are debounced so an editor writing a file in several steps
// triggers a single reload.
type Watcher struct {
	fsw      *fsnotify.Watcher
	paths    map[string]bool
	debounce time.Duration
	reload   func()
	logger   *zap.Logger
	done     chan struct{}
}

// NewWatcher watches the directories containing the given pattern files.
// Directories are watched rather than the files themselves because most
// editors replace files on save, which drops file-level watches.
func NewWatcher(paths []string, debounce time.Duration, reload func(), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logger.Warn("failed to watch pattern directory",
				zap.String("dir", dir),
				zap.Error(err),
			)
		}
	}

	return &Watcher{
		fsw:      fsw,
		paths:    watched,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Run processes filesystem events until Close is called.
func (w *Watcher) Run() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("pattern file changed",
				zap.String("path", abs),
				zap.String("op", event.Op.String()),
			)
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("pattern files changed, reloading")
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("pattern watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
