package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the file at path whenever it changes and passes each valid
// result to onChange. Invalid edits are logged and skipped. Watch returns
// once the watcher is running; it stops when ctx is done.
//
// The parent directory is watched so editors that replace the file on save
// are still picked up.
func Watch(ctx context.Context, path string, logger *zap.SugaredLogger, onChange func(*Config)) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}

				cfg, err := LoadFrom(path)
				if err != nil {
					logger.Warnw("Ignoring unreadable config change", "path", path, "error", err)
					continue
				}
				if err := cfg.Validate(); err != nil {
					logger.Warnw("Ignoring invalid config change", "path", path, "error", err)
					continue
				}
				logger.Infow("Config reloaded", "path", path)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("Config watcher error", "error", err)
			}
		}
	}()
	return nil
}
