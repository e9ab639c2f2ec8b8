package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/loop"
	"mercator-hq/ganymede/pkg/policy/variable"
	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// DefaultDebounce is the reload debounce applied when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// File is an async-mode variable backed by a YAML document on disk. The
// file is watched with fsnotify; edits are debounced, re-decoded, and
// pushed to observers. Until the first successful decode the variable
// reports no value.
type File[T any] struct {
	*variable.Async[T]

	path     string
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	pending *time.Timer
}

// NewFile creates the variable and performs an initial load. A missing or
// malformed file is not an error: the variable simply has no value until
// the file becomes readable.
func NewFile[T any](name, path string, lp *loop.Loop, debounce time.Duration) (*File[T], error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	f := &File[T]{
		Async:    variable.NewAsync[T](name, lp),
		path:     path,
		debounce: debounce,
		logger:   logging.Component("policy.sources.file").With("variable", name, "path", path),
		watcher:  watcher,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	// Watch the directory rather than the file: editors replace files by
	// rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	f.load()
	go f.run()
	return f, nil
}

// run is the watcher goroutine. It never touches observers directly; loads
// go through Async.Set, which posts onto the event loop.
func (f *File[T]) run() {
	defer close(f.doneCh)
	for {
		select {
		case <-f.stopCh:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			f.scheduleReload()

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("watch error", "error", err)
		}
	}
}

// scheduleReload (re)arms the debounce timer so edit storms collapse into
// one reload.
func (f *File[T]) scheduleReload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		f.pending.Stop()
	}
	f.pending = time.AfterFunc(f.debounce, f.load)
}

// load reads and decodes the file, pushing the document on success.
func (f *File[T]) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.logger.Debug("file not readable", "error", err)
		return
	}
	var doc T
	if err := yaml.Unmarshal(data, &doc); err != nil {
		f.logger.Warn("failed to decode file, keeping previous value", "error", err)
		return
	}
	f.Set(doc)
}

// Close stops the watcher. The last pushed value remains readable.
func (f *File[T]) Close() error {
	close(f.stopCh)
	err := f.watcher.Close()
	<-f.doneCh
	f.mu.Lock()
	if f.pending != nil {
		f.pending.Stop()
	}
	f.mu.Unlock()
	return err
}
