package reconciler

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jirenius/modapp/pkg/logging"
)

// DefaultDebounceInterval is how long the detector waits for further writes
// before reporting a change.
const DefaultDebounceInterval = 500 * time.Millisecond

// FileDetector watches a single configuration file.
//
// It watches the parent directory rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original are
// still noticed. Rapid successive events are merged into one.
type FileDetector struct {
	mu sync.Mutex

	path string
	dir  string

	watcher          *fsnotify.Watcher
	debounceInterval time.Duration

	// pending is the change waiting for its debounce timer.
	pending *debounceEntry

	stopCh  chan struct{}
	running bool
}

type debounceEntry struct {
	event ChangeEvent
	timer *time.Timer
}

// NewFileDetector creates a detector for the file at path.
func NewFileDetector(path string, debounceInterval time.Duration) *FileDetector {
	if debounceInterval == 0 {
		debounceInterval = DefaultDebounceInterval
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &FileDetector{
		path:             abs,
		dir:              filepath.Dir(abs),
		debounceInterval: debounceInterval,
		stopCh:           make(chan struct{}),
	}
}

// Path returns the absolute path of the watched file.
func (d *FileDetector) Path() string {
	return d.path
}

// Start begins watching. Changes are delivered on changes until ctx is done
// or Stop is called.
func (d *FileDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	go d.processEvents(ctx, watcher, stopCh, changes)

	logging.Info("Reconciler", "Watching %s for configuration changes", d.path)
	return nil
}

func (d *FileDetector) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh <-chan struct{}, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.cancelPending()
			return

		case <-stopCh:
			d.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Reconciler", err, "Filesystem watcher error")
		}
	}
}

func (d *FileDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	if filepath.Clean(event.Name) != d.path {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Has(fsnotify.Create):
		operation = OperationCreate
	case event.Has(fsnotify.Write):
		operation = OperationUpdate
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		operation = OperationDelete
	default:
		return
	}

	d.debounce(ChangeEvent{
		Path:      d.path,
		Operation: operation,
		Timestamp: time.Now(),
	}, changes)
}

func (d *FileDetector) debounce(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.timer.Stop()
		event.Operation = mergeOperations(d.pending.event.Operation, event.Operation)
	}

	entry := &debounceEntry{event: event}
	entry.timer = time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		if d.pending != entry {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()

		select {
		case changes <- entry.event:
			logging.Debug("Reconciler", "Emitted change event: %s %s", entry.event.Operation, entry.event.Path)
		default:
			logging.Warn("Reconciler", "Change event channel full, dropping event for %s", entry.event.Path)
		}
	})
	d.pending = entry
}

// mergeOperations folds two successive operations into one.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	switch {
	case new == OperationDelete:
		return OperationDelete
	case old == OperationCreate:
		return OperationCreate
	case old == OperationDelete && new == OperationUpdate:
		// Replaced by rename, then written.
		return OperationCreate
	default:
		return new
	}
}

func (d *FileDetector) cancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.timer.Stop()
		d.pending = nil
	}
}

// Stop stops watching. It is safe to call more than once.
func (d *FileDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	close(d.stopCh)

	var err error
	if d.watcher != nil {
		if err = d.watcher.Close(); err != nil {
			logging.Error("Reconciler", err, "Error closing filesystem watcher")
		}
		d.watcher = nil
	}

	logging.Info("Reconciler", "Stopped watching %s", d.path)
	return err
}
