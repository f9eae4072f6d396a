package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/icetype/icetype/pkg/logger"
)

// Watcher re-runs a callback when schema files change, coalescing editor
// write bursts behind a debounce window.
type Watcher struct {
	logger   *logger.Logger
	debounce time.Duration
	onChange func()
}

func New(log *logger.Logger, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{logger: log, debounce: debounce, onChange: onChange}
}

// Watch blocks until ctx is cancelled. Directories are watched rather than
// files because editors commonly replace files on save, which drops
// per-file watches.
func (w *Watcher) Watch(ctx context.Context, schemaFiles []string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer fsWatcher.Close()

	dirs := make(map[string]bool)
	for _, file := range schemaFiles {
		dirs[filepath.Dir(file)] = true
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no schema files to watch")
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debugf("Watching %s", dir)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debugf("Change detected: %s (%s)", event.Name, event.Op)
			timer.Reset(w.debounce)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnf("Watcher error: %v", err)

		case <-timer.C:
			w.onChange()
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
