// Package watch reloads a workbook when it changes on disk.
// Editors often save by writing a temp file and renaming it over the
// original, so the watcher follows the file's directory rather than the
// file itself.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event records one reload attempt.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "reloaded", "error"
	Error     string    `json:"error,omitempty"`
}

// ReloadFunc is called, after the debounce delay, once a watched file has
// settled.
type ReloadFunc func(path string) error

// Watcher calls OnChange when any of its files is written, created or
// replaced.
type Watcher struct {
	Files    []string
	Debounce time.Duration
	Logger   *log.Logger
	OnChange ReloadFunc

	mu      sync.Mutex
	events  []Event
	timers  map[string]*time.Timer
	watcher *fsnotify.Watcher
	ready   chan struct{}
}

// New creates a watcher for files. A non-positive debounce uses 500ms.
func New(files []string, debounce time.Duration, onChange ReloadFunc) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to watch — pass at least one workbook path")
	}
	abs := make([]string, len(files))
	for i, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("could not resolve %s: %w", f, err)
		}
		abs[i] = p
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		Files:    abs,
		Debounce: debounce,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		OnChange: onChange,
		timers:   make(map[string]*time.Timer),
		watcher:  fsw,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Start has registered every directory.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for _, f := range w.Files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.watcher.Close()
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	close(w.ready)
	w.Logger.Printf("Watching %d file(s) for changes", len(w.Files))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) watched(path string) bool {
	for _, f := range w.Files {
		if f == path {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	if !w.watched(path) {
		return
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return
	}

	op := event.Op.String()
	w.mu.Lock()
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.Debounce, func() {
		w.reload(path, op)
	})
	w.mu.Unlock()
}

func (w *Watcher) reload(path, op string) {
	evt := Event{Time: time.Now(), Path: path, Operation: op, Status: "reloaded"}

	if _, err := os.Stat(path); err != nil {
		// Renamed away; the replacement will arrive as a Create.
		return
	}

	if w.OnChange != nil {
		if err := w.OnChange(path); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Printf("Error reloading %s: %v", path, err)
		} else {
			w.Logger.Printf("Reloaded %s", path)
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	delete(w.timers, path)
	w.mu.Unlock()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// Events returns all recorded reloads.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
