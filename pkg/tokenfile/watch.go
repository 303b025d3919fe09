package tokenfile

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of editor writes into one callback.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange with the token files that changed, once per quiet
// period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	matcher  *Matcher
	debounce time.Duration
	onChange func(paths []string)
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher prepares a watcher rooted at root. debounce <= 0 uses DefaultDebounce.
func NewWatcher(root string, m *Matcher, debounce time.Duration, onChange func([]string), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		root:     absRoot,
		matcher:  m,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start adds watches for root and its non-excluded subdirectories and begins
// processing events in the background.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel := relSlash(w.root, path)
		if rel != "." && (w.matcher.Excluded(rel) || w.matcher.Excluded(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}
	w.logger.Info("Token watcher started", "root", w.root)
	go w.loop()
	return nil
}

// Stop ends the watcher and cancels any pending callback. It is idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.stop)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	w.logger.Info("Token watcher stopped")
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Token watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	rel := relSlash(w.root, event.Name)
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.matcher.Excluded(rel) {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("Watching new directory", "path", event.Name)
			}
			return
		}
	}
	if !w.matcher.Included(rel) {
		return
	}
	w.logger.Debug("Token file event", "op", event.Op.String(), "file", event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(paths)
	w.onChange(paths)
}
