package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/simmonson/fib-worker/types"
)

// Watch reloads the file at path whenever it changes and passes every
// configuration that loads and validates to onChange. Invalid edits are
// logged and skipped, so the previous configuration stays in effect. An
// empty file is skipped as well.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temporary file are still observed.
//
// Watch blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context controlling the watch lifetime
//   - path: Configuration file to watch
//   - logger: Logger for reload failures
//   - onChange: Callback receiving each reloaded configuration
//
// Returns:
//   - error: Error if the watcher cannot be created, nil after ctx is cancelled
func Watch(ctx context.Context, path string, logger types.Logger, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// Truncation fires its own event before the new content lands.
			if info, err := os.Stat(abs); err != nil || info.Size() == 0 {
				continue
			}

			cfg, err := load(abs, os.LookupEnv)
			if err != nil {
				logger.Warn("config reload rejected", "path", abs, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", abs)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
