// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file when it changes on disk.
// The reloaded configs are delivered on a channel so that they can be
// applied from the thread that owns the context.
type ConfigWatcher struct {
	filename string
	watcher  *fsnotify.Watcher
	changes  chan *Config
	done     chan struct{}
	closing  sync.Once
	closeErr error
}

// WatchConfig starts watching the given config file. The directory is
// watched, so that editors that replace the file are seen.
func WatchConfig(filename string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{filename: abs, watcher: w, changes: make(chan *Config, 1), done: make(chan struct{})}
	go cw.watch()
	return cw, nil
}

// Changes returns the channel of reloaded configs. A config that fails
// to load or validate is logged and not delivered.
func (cw *ConfigWatcher) Changes() <-chan *Config { return cw.changes }

// Poll returns the most recent reloaded config, or nil if there is none.
// It does not block. A nil watcher has no changes.
func (cw *ConfigWatcher) Poll() *Config {
	if cw == nil {
		return nil
	}
	select {
	case cf := <-cw.changes:
		return cf
	default:
		return nil
	}
}

func (cw *ConfigWatcher) watch() {
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.filename || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cf, err := LoadConfig(cw.filename)
			if err != nil {
				slog.Error("gpu: reloading config", "file", cw.filename, "err", err)
				continue
			}
			// keep only the latest
			select {
			case <-cw.changes:
			default:
			}
			cw.changes <- cf
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("gpu: watching config", "file", cw.filename, "err", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (cw *ConfigWatcher) Close() error {
	cw.closing.Do(func() {
		close(cw.done)
		cw.closeErr = cw.watcher.Close()
	})
	return cw.closeErr
}
