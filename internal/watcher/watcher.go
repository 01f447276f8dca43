// Package watcher re-runs the minifier whenever a watched file changes.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"skysheet/internal/logger"
	"skysheet/internal/processor"
)

const (
	// DefaultDebounce is how long a file must stay quiet before it is processed.
	DefaultDebounce = 500 * time.Millisecond

	// ownWriteTTL is how long events for files written by the processor
	// are ignored.
	ownWriteTTL = 2 * time.Second

	ownWriteCacheSize = 1024
)

// Watcher watches files and directories and processes eligible files
// after they change.
type Watcher struct {
	processor *processor.Processor
	fs        *fsnotify.Watcher
	ownWrites *expirable.LRU[string, struct{}]

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// OnResult is called from the Run goroutine after each file.
	OnResult func(*processor.Result)

	mu    sync.Mutex
	roots []string        // watched directory trees
	files map[string]bool // explicitly watched files
}

// New creates a Watcher around p. Files written by p are not reprocessed.
func New(p *processor.Processor) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		processor: p,
		fs:        fsw,
		ownWrites: expirable.NewLRU[string, struct{}](ownWriteCacheSize, nil, ownWriteTTL),
		Debounce:  DefaultDebounce,
		files:     make(map[string]bool),
	}

	next := p.BeforeWrite
	p.BeforeWrite = func(path string) {
		w.ownWrites.Add(absPath(path), struct{}{})
		if next != nil {
			next(path)
		}
	}

	return w, nil
}

// Add watches a file, or a directory and everything below it.
func (w *Watcher) Add(path string) error {
	path = absPath(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		w.mu.Lock()
		w.files[path] = true
		w.mu.Unlock()
		return w.fs.Add(filepath.Dir(path))
	}

	w.mu.Lock()
	w.roots = append(w.roots, path)
	w.mu.Unlock()
	return w.addTree(path)
}

// addTree watches dir and its subdirectories, skipping backup and
// excluded directories.
func (w *Watcher) addTree(dir string) error {
	cfg := w.processor.Config
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (d.Name() == cfg.BackupDir || w.excluded(path)) {
			return filepath.SkipDir
		}
		logger.Debug("watching %s", path)
		return w.fs.Add(path)
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run handles file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)
	tick := w.Debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event, pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < w.Debounce {
					continue
				}
				delete(pending, path)
				result := w.processor.Process(ctx, path)
				if w.OnResult != nil {
					w.OnResult(result)
				}
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	path := absPath(event.Name)

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Has(fsnotify.Create) && w.inTree(path) &&
			filepath.Base(path) != w.processor.Config.BackupDir && !w.excluded(path) {
			if err := w.addTree(path); err != nil {
				logger.Warn("failed to watch %s: %v", path, err)
			}
		}
		return
	}

	if w.ownWrites.Contains(path) {
		logger.Debug("ignoring own write to %s", path)
		return
	}
	if !w.wanted(path) {
		return
	}

	logger.Debug("%s changed (%s)", path, event.Op)
	pending[path] = time.Now()
}

// wanted reports whether path is an explicitly watched file or an eligible
// file inside a watched tree.
func (w *Watcher) wanted(path string) bool {
	w.mu.Lock()
	explicit := w.files[path]
	w.mu.Unlock()
	if explicit {
		return true
	}
	return w.inTree(path) && w.processor.Config.IsEligible(path) && !w.excluded(path)
}

func (w *Watcher) inTree(path string) bool {
	return w.root(path) != ""
}

// root returns the watched tree containing path.
func (w *Watcher) root(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.roots {
		rel, err := filepath.Rel(r, path)
		if err == nil && rel != ".." && !startsWithParent(rel) {
			return r
		}
	}
	return ""
}

func (w *Watcher) excluded(path string) bool {
	r := w.root(path)
	if r == "" {
		return false
	}
	rel, err := filepath.Rel(r, path)
	if err != nil {
		return false
	}
	return processor.IsExcluded(rel, w.processor.Config.Exclude)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
