// Package watch triggers a callback when the images tree changes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher watches the images dir and every case folder in it. Bursts of
// events (a contributor copying a whole folder) are collapsed into one
// OnChange call once the tree has been quiet for the debounce interval.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

func New(dir string, debounce time.Duration, onChange func(ctx context.Context), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds the watches and returns; events are handled in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("cannot list images dir", zap.String("dir", w.dir), zap.Error(err))
	}
	for _, e := range entries {
		if e.IsDir() {
			w.add(filepath.Join(w.dir, e.Name()))
		}
	}
	w.logger.Info("watching images", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch case folder", zap.String("dir", dir), zap.Error(err))
	}
}

// Stop ends the event loop and releases the watcher. It is safe to call more
// than once and after Start failed.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("error closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && filepath.Dir(event.Name) == filepath.Clean(w.dir) {
					w.add(event.Name)
				}
			}
			w.logger.Debug("images changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-timer.C:
			w.onChange(ctx)
		}
	}
}
