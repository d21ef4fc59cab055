// Package watch reruns the manifest pipeline whenever files under the base
// directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/filesnap/internal/filelock"
	"github.com/harrison/filesnap/internal/fileutil"
)

// DefaultDebounceDelay coalesces bursts of changes into one rebuild.
const DefaultDebounceDelay = 250 * time.Millisecond

// FileOp represents the type of file operation
type FileOp int

const (
	// FileCreated indicates a new file was created
	FileCreated FileOp = iota
	// FileWritten indicates a file was written to
	FileWritten
	// FileRemoved indicates a file was removed or renamed away
	FileRemoved
)

// String returns a human-readable representation of the file operation
func (op FileOp) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileWritten:
		return "written"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Logger receives watcher diagnostics.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// ChangeFunc is called once per debounced batch with the changed
// root-relative paths in lexical order.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches a directory tree and batches change notifications.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	ignored map[string]struct{}
	logger  Logger

	mu            sync.Mutex
	debounceDelay time.Duration
	closed        bool
}

// NewWatcher watches root and every directory below it except .git.
// ignored lists root-relative slash paths whose changes never trigger a
// rebuild, typically the run's own outputs.
func NewWatcher(root string, ignored []string, logger Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       watcher,
		root:          abs,
		ignored:       make(map[string]struct{}, len(ignored)),
		logger:        logger,
		debounceDelay: DefaultDebounceDelay,
	}
	for _, p := range ignored {
		w.ignored[p] = struct{}{}
	}

	if err := w.addRecursive(abs); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive adds dir and its subdirectories, skipping VCS metadata
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished between event and walk
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == fileutil.VCSDir {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		return nil
	})
}

// SetDebounceDelay sets the quiet period before a batch is delivered
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

func (w *Watcher) delay() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.debounceDelay
}

// Run delivers debounced change batches to onChange until ctx is cancelled
// or the watcher is closed. onChange runs on the calling goroutine, so events
// arriving during a rebuild are folded into the next batch.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			rel, op, relevant := w.classify(event)
			if !relevant {
				continue
			}
			w.debug(fmt.Sprintf("Change %s: %s", op, rel))
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.delay())
			} else {
				timer.Reset(w.delay())
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.logger != nil {
				w.logger.LogWarn(fmt.Sprintf("watch error: %v", err))
			}

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})
			onChange(ctx, changed)
		}
	}
}

// classify maps an fsnotify event to a root-relative path and operation,
// registering new directories on the way.
func (w *Watcher) classify(event fsnotify.Event) (string, FileOp, bool) {
	rel, ok := fileutil.Normalize(event.Name, w.root)
	if !ok {
		return "", 0, false
	}
	if _, skip := w.ignored[rel]; skip {
		return "", 0, false
	}
	// our own atomic writes
	if strings.HasPrefix(path.Base(rel), filelock.TempPrefix) {
		return "", 0, false
	}

	var op FileOp
	switch {
	case event.Has(fsnotify.Create):
		op = FileCreated
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil && w.logger != nil {
				w.logger.LogWarn(fmt.Sprintf("watch %s: %v", rel, err))
			}
		}
	case event.Has(fsnotify.Write):
		op = FileWritten
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = FileRemoved
	default:
		// chmod only
		return "", 0, false
	}
	return rel, op, true
}

func (w *Watcher) debug(message string) {
	if w.logger != nil {
		w.logger.LogDebug(message)
	}
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	return w.watcher.Close()
}
