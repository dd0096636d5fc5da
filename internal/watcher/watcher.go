package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/config"
)

// DefaultDebounce is how long the Watcher waits for a burst of events to
// settle before validating.
const DefaultDebounce = 200 * time.Millisecond

// Result is one validation of the watched file.
type Result struct {
	Path     string
	Time     time.Time
	Services int
	// Removed is set when the file no longer exists.
	Removed bool
	Err     error
}

// Validate loads path and reports what it found.
func Validate(path string) Result {
	r := Result{Path: path, Time: time.Now()}
	sf, err := config.LoadServices(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.Removed = true
		r.Err = fmt.Errorf("%s was removed", path)
	case err != nil:
		r.Err = err
	default:
		r.Services = len(sf.Services)
	}
	return r
}

// Watcher watches a single file through its parent directory.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
}

// New starts watching the directory containing path. The directory must
// exist.
func New(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s does not exist: run 'devboot' first", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		fs:       fsw,
		logger:   logger,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce overrides DefaultDebounce (useful for testing).
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run validates the file once, then again after every settled change,
// until ctx is cancelled. handle is called from Run's goroutine.
func (w *Watcher) Run(ctx context.Context, handle func(Result)) error {
	handle(Validate(w.path))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.logger.Debug("services file event", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			handle(Validate(w.path))
		}
	}
}
