package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	log "github.com/nvbach/llm-bridge/internal/logging"
)

// Watch reloads the config whenever the file changes and hands the new
// value to onChange. Editors often replace files rather than write them in
// place, so the parent directory is watched and events are debounced.
// Returns a stop function.
func Watch(path string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		var timer *time.Timer
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(200*time.Millisecond, func() {
					cfg, loadErr := Load(abs)
					if loadErr != nil {
						log.Warnf("config reload skipped: %v", loadErr)
						return
					}
					log.Infof("config reloaded from %s", abs)
					onChange(cfg)
				})
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("config watcher: %v", watchErr)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
