// Package watch re-runs work when problem or config files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
)

// ErrNoFiles is returned when Watch is given nothing to watch.
var ErrNoFiles = errors.New("no files to watch")

// Handler receives the files changed within one debounce window.
type Handler func(ctx context.Context, changed []string)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long to wait for further changes before calling the
	// handler. Editors often write a file in several steps.
	Debounce time.Duration
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{Debounce: 100 * time.Millisecond}
}

// Watcher watches a fixed set of files.
type Watcher struct {
	files   map[string]struct{}
	watcher *fsnotify.Watcher
	opts    Options

	closeOnce sync.Once
}

// New creates a watcher for files. Parent directories are watched so
// files replaced by rename are still seen.
func New(files []string, opts Options) (*Watcher, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{files: make(map[string]struct{}), watcher: fw, opts: opts}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers debounced changes to handler until ctx is done.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	defer w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.files[name]; !watched {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			handler(ctx, changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Add(logging.ErrorField(err)).Msg("file watch error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
