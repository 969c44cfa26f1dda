// Package watch keeps the span cache current: an fsnotify watcher
// observes session directories and a rescan engine re-locates image
// spans in files as they change.
package watch

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes directory trees and reports changed files to a
// callback after a debounce period, so a file being appended to by
// a running agent triggers one rescan instead of hundreds.
type Watcher struct {
	onChange func(paths []string)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  map[string]time.Time
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a watcher that calls onChange with the batch of
// paths whose events settled for at least the debounce period.
func NewWatcher(
	debounce time.Duration, onChange func(paths []string),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// WatchRecursive adds root and all its subdirectories to the watch
// list. Inaccessible directories are skipped, not fatal: session
// trees routinely contain dirs the agent locked down.
func (w *Watcher) WatchRecursive(root string) (watched int, err error) {
	err = filepath.WalkDir(root,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if addErr := w.watcher.Add(path); addErr == nil {
					watched++
				}
			}
			return nil
		})
	return watched, err
}

// Start begins processing events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent records writes and creations, auto-watching new
// directories so session files that appear later are covered.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if _, err := w.WatchRecursive(event.Name); err != nil {
				log.Printf("watching %s: %v", event.Name, err)
			}
			return
		}
	}

	w.mu.Lock()
	w.pending[event.Name] = w.now()
	w.mu.Unlock()
}

// flush delivers paths whose last event is older than the debounce
// window.
func (w *Watcher) flush() {
	cutoff := w.now().Add(-w.debounce)

	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if last.Before(cutoff) || last.Equal(cutoff) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) > 0 {
		w.onChange(ready)
	}
}
