// Package watch reports changes to the Python sources and configuration of a
// project tree, batched over a quiet period.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/utils"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset
const DefaultDebounce = 100 * time.Millisecond

// Config selects what is watched
type Config struct {
	Root     string        // project tree to watch
	Debounce time.Duration // quiet period before changes are reported
}

// Watcher watches a project tree for changed Python files and configuration
type Watcher struct {
	config Config
	fs     *fsnotify.Watcher
	logger *zap.Logger
}

// New creates a watcher for cfg.Root. Run must be called to release it.
func New(cfg Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{config: cfg, fs: fs, logger: logger}
	if err := w.addTree(cfg.Root); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return utils.WalkDirs(root, func(path string) error {
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", zap.String("path", path))
		return nil
	})
}

// relevant reports whether a change to path should be reported
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	return utils.IsPythonFile(name) || name == utils.ConfigFileName
}

// Run blocks until ctx is cancelled, calling onChange with the sorted paths
// changed during each burst of activity. New directories are watched as they
// appear.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.fs.Close()

	pending := make(map[string]bool)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !utils.IsSkippedDir(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

			pending[event.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.config.Debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			onChange(paths)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
