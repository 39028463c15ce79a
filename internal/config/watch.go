package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch reloads the config whenever the file at path changes and hands
// the fresh config to onChange. Reload failures are logged and the
// previous config stays in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file itself so that
// editors that replace the file (rename-over-write) keep triggering.
func Watch(ctx context.Context, path string, logger *log.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)

	var timer *time.Timer
	var timerC <-chan time.Time

	reload := func() {
		c, err := Load(path)
		if err != nil {
			logger.Printf("[config] reload failed, keeping previous config: %v", err)
			return
		}
		c.ApplyEnv()
		logger.Printf("[config] reloaded from %s", path)
		onChange(c)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors fire bursts of events per save.
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("[config] watch error: %v", err)
		}
	}
}
