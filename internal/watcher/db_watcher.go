package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// dbWatcher implements FileWatcher for a SQLite database file.
// It watches the containing directory so journal and WAL files, which SQLite
// creates and removes on its own, are seen too.
type dbWatcher struct {
	watcher       *fsnotify.Watcher
	names         map[string]bool      // Base names that count as a database change
	debounceTime  time.Duration        // Quiet period before firing callback
	callback      func(files []string) // Callback to invoke with changed files
	ctx           context.Context      // Context for lifecycle management
	cancel        context.CancelFunc   // Cancel function for internal context
	paused        bool                 // Whether watching is paused
	pausedMu      sync.RWMutex         // Protects paused flag
	accumulated   map[string]bool      // Accumulated file changes
	accumulatedMu sync.Mutex           // Protects accumulated map
	debounceTimer *time.Timer          // Current debounce timer
	timerMu       sync.Mutex           // Protects debounce timer
	stopOnce      sync.Once            // Ensures Stop() is idempotent
	doneCh        chan struct{}        // Signals watch goroutine has finished
}

// NewDBWatcher creates a watcher for the database at dbPath. The directory
// must exist; the database file itself may not exist yet.
// A debounce of zero or less uses DefaultDebounce.
func NewDBWatcher(dbPath string, debounce time.Duration) (FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(dbPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// The shared-memory index changes on plain reads, so it is not included.
	base := filepath.Base(dbPath)
	names := map[string]bool{
		base:              true,
		base + "-wal":     true,
		base + "-journal": true,
	}

	return &dbWatcher{
		watcher:      watcher,
		names:        names,
		debounceTime: debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins watching for database changes.
func (w *dbWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}

	w.callback = callback
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.watch()
	return nil
}

// Stop stops the watcher.
func (w *dbWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			// Never started
			close(w.doneCh)
		}
		err = w.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (w *dbWatcher) Pause() {
	w.pausedMu.Lock()
	defer w.pausedMu.Unlock()
	w.paused = true
}

// Resume resumes firing callbacks, flushing anything accumulated while paused.
func (w *dbWatcher) Resume() {
	w.pausedMu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.pausedMu.Unlock()

	if wasPaused {
		w.flush()
	}
}

// watch is the main event loop.
func (w *dbWatcher) watch() {
	defer close(w.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.accumulatedMu.Lock()
			w.accumulated[event.Name] = true
			w.accumulatedMu.Unlock()

			w.resetDebounceTimer(fireCh)

		case <-fireCh:
			w.pausedMu.RLock()
			paused := w.paused
			w.pausedMu.RUnlock()
			if !paused {
				w.flush()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Database watcher error: %v", err)
		}
	}
}

// flush fires the callback with the accumulated files, if any.
func (w *dbWatcher) flush() {
	w.accumulatedMu.Lock()
	if len(w.accumulated) == 0 {
		w.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(w.accumulated))
	for file := range w.accumulated {
		files = append(files, file)
	}
	w.accumulated = make(map[string]bool)
	w.accumulatedMu.Unlock()

	sort.Strings(files)
	if w.callback != nil {
		w.callback(files)
	}
}

// resetDebounceTimer restarts the quiet period.
func (w *dbWatcher) resetDebounceTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *dbWatcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// shouldProcessEvent keeps write, create and remove events on database files.
func (w *dbWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	return w.names[filepath.Base(event.Name)]
}
