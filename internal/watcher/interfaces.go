package watcher

import "context"

// FileWatcher monitors the field database for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with the debounced set of changed files.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and cleans up resources. It is idempotent.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}
