package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls a trigger when files are created or written in the watched directories.
// Bursts of events within the debounce window produce one trigger.
type Watcher struct {
	dirs     []string
	trigger  func()
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher over dirs.
func NewWatcher(dirs []string, trigger func(), debounce time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{dirs: dirs, trigger: trigger, debounce: debounce, logger: logger}
}

// Run blocks until ctx is done. Missing directories are created so partners can drop
// files into them later.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Info("Watching exchange directories", zap.Strings("dirs", w.dirs))

	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.logger.Debug("Exchange file changed", zap.String("path", filepath.ToSlash(event.Name)))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}

		case <-fire:
			timer, fire = nil, nil
			w.trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}
