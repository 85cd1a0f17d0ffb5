package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/morph/pkg/config"
)

// reloadDelay collapses the burst of events editors produce for one save
const reloadDelay = 200 * time.Millisecond

// Watch reloads the analyzer whenever the configuration file at path is
// written, created or renamed into place. It blocks until ctx is done. A
// configuration that fails to load or resolve is logged and ignored.
func (a *Analyzer) Watch(ctx context.Context, path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so replacing the file keeps working
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	log := a.log.WithField("config", path)
	log.Info("Watching configuration for changes")

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				log.WithField("op", event.Op.String()).Debug("Configuration changed")
				timer.Reset(reloadDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")

		case <-timer.C:
			cfg, err := config.LoadConfig(path)
			if err != nil {
				a.metrics.RecordReload(err)
				log.WithError(err).Error("Failed to load changed configuration")
				continue
			}
			// Reload logs its own failures
			_ = a.Reload(ctx, cfg)
		}
	}
}
