// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/watch.go
// Summary: Hot reload of the config file via fsnotify.
//
// Watches the config directory rather than the file itself so editors
// that save by renaming a temp file over it keep being seen.

package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration when the file changes on disk.
type Watcher struct {
	fsw       *fsnotify.Watcher
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Watch starts watching the config file. onChange runs after every
// successful reload; it may be nil.
func Watch(onChange func()) (*Watcher, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	// The directory has to exist before it can be watched
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop(filepath.Base(path), onChange)
	return w, nil
}

func (w *Watcher) loop(name string, onChange func()) {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if err := Reload(); err != nil {
				log.Printf("Config: Reload after change failed: %v", err)
				continue
			}
			if onChange != nil {
				onChange()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Config: Watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
