package functions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const defaultDebounceDuration = 100 * time.Millisecond

// Watcher clears the function cache when manifests under the functions root
// change on disk. Bursts of events are collapsed into one clear.
type Watcher struct {
	registry         *Registry
	watcher          *fsnotify.Watcher
	debounceDuration time.Duration
	timer            *time.Timer
	onClear          func()
	mu               sync.Mutex
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// NewWatcher creates a watcher for the registry's root.
func NewWatcher(registry *Registry) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		registry:         registry,
		watcher:          watcher,
		debounceDuration: defaultDebounceDuration,
		ctx:              ctx,
		cancel:           cancel,
	}, nil
}

// SetDebounceDuration sets how long the watcher waits for events to settle.
func (w *Watcher) SetDebounceDuration(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.debounceDuration = d
	}
}

// OnClear registers fn to run after each cache clear the watcher triggers.
func (w *Watcher) OnClear(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClear = fn
}

// Start watches the root and every function directory directly beneath it.
func (w *Watcher) Start() error {
	root := w.registry.Root()
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading functions directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && !w.registry.Ignored(entry.Name()) {
			w.addDir(filepath.Join(root, entry.Name()))
		}
	}

	log.Debug().Str("path", root).Msg("Watching functions directory")

	w.wg.Add(1)
	go w.eventLoop()

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) addDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		log.Warn().Err(err).Str("path", dir).Msg("Failed to watch function directory")
	}
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if !w.relevant(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.registry.Root()) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
		}
	}

	log.Debug().
		Str("file", event.Name).
		Str("op", event.Op.String()).
		Msg("Function source changed")

	w.debounceClear()
}

// relevant reports whether path lies under a function entry that is not
// ignored.
func (w *Watcher) relevant(path string) bool {
	rel, err := filepath.Rel(w.registry.Root(), path)
	if err != nil || !filepath.IsLocal(rel) {
		return false
	}
	top, _, _ := splitFirst(rel)
	return !w.registry.Ignored(top)
}

func splitFirst(rel string) (string, string, bool) {
	for i := 0; i < len(rel); i++ {
		if os.IsPathSeparator(rel[i]) {
			return rel[:i], rel[i+1:], true
		}
	}
	return rel, "", false
}

func (w *Watcher) debounceClear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounceDuration, func() {
		w.registry.Clear()
		log.Info().Str("path", w.registry.Root()).Msg("Functions changed, cache cleared")

		w.mu.Lock()
		fn := w.onClear
		w.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}
