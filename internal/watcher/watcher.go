// Package watcher reports changes to a project's ticket store and config
// file, so long-running views can refresh when another pg process writes.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file change event
type EventType int

const (
	TicketsChanged EventType = iota
	ConfigChanged
)

func (t EventType) String() string {
	switch t {
	case TicketsChanged:
		return "tickets"
	case ConfigChanged:
		return "config"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event represents a file change event
type Event struct {
	Type EventType
	Path string
}

// Watcher watches the directory holding a ticket store
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Event
	Errors  chan error
	done    chan struct{}

	mu         sync.Mutex
	running    bool
	closed     bool
	storeBase  string
	configBase string
}

// New creates a new file watcher
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsWatcher,
		Events:  make(chan Event, 100),
		Errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// WatchStore watches storePath and, when configName is not empty, the
// config file of that name next to it. The directory must already exist.
func (w *Watcher) WatchStore(storePath, configName string) error {
	dir := filepath.Dir(storePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("state directory does not exist: %s", dir)
	}

	// Watch the directory rather than the file: saves replace the file by
	// rename, which drops a watch on the old inode.
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch state directory: %w", err)
	}

	w.mu.Lock()
	w.storeBase = filepath.Base(storePath)
	w.configBase = configName
	w.mu.Unlock()
	return nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.eventLoop()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			e := w.classifyEvent(event.Name)
			if e != nil {
				// Channel full means a refresh is already pending
				select {
				case w.Events <- *e:
				default:
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// classifyEvent maps a changed path onto an event, or nil for files pg does
// not care about (lock files, temp files written before a rename)
func (w *Watcher) classifyEvent(path string) *Event {
	base := filepath.Base(path)

	w.mu.Lock()
	storeBase, configBase := w.storeBase, w.configBase
	w.mu.Unlock()

	switch {
	case storeBase != "" && base == storeBase:
		return &Event{Type: TicketsChanged, Path: path}
	case storeBase != "" && isSQLiteSidecar(base, storeBase):
		return &Event{Type: TicketsChanged, Path: path}
	case configBase != "" && base == configBase:
		return &Event{Type: ConfigChanged, Path: path}
	}
	return nil
}

// SQLite in WAL mode commits to the -wal file before checkpointing
func isSQLiteSidecar(base, storeBase string) bool {
	return base == storeBase+"-wal" || (strings.HasPrefix(base, storeBase+"-") && strings.HasSuffix(base, "-journal"))
}

// Stop stops the watcher and releases the underlying fsnotify watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.running {
		close(w.done)
		w.running = false
	}
	return w.watcher.Close()
}

// Close is an alias for Stop
func (w *Watcher) Close() error {
	return w.Stop()
}
