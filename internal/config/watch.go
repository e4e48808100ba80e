package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/mancerhq/mancer/internal/logx"
)

// Watcher reloads the config file on write/rename and invokes onChange
// with the freshly loaded Config so a caller can apply the new settings
// without a restart. The orchestrator package does not use it.
type Watcher struct {
	fsw *fsnotify.Watcher
	log logx.Log
	done chan struct{}
}

// WatchFile starts watching path for changes. Editors commonly replace
// a file rather than writing in place, so both Write and Create/Rename
// events trigger a reload. A reload error is logged and the watcher
// keeps running rather than giving up on the next change.
func WatchFile(path string, log logx.Log, onChange func(Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, log: log.WithFields(map[string]any{"component": "config.watcher", "path": path}), done: make(chan struct{})}
	go w.loop(path, onChange)
	return w, nil
}

func (w *Watcher) loop(path string, onChange func(Config)) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				w.log.WithError(err).Error("config reload failed, keeping previous configuration")
				continue
			}
			w.log.Info("config reloaded")
			onChange(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("config watcher error")
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine and releases its inotify/kqueue
// handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
