package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is invoked after a successful reload, with both the
// previous and the newly loaded config.
type ChangeCallback func(old, new *Config) error

// Watcher reloads Config on file change, following the teacher's
// ConfigWatcher (internal/config/watcher.go): an fsnotify.Watcher on the
// config file, a debounce window to collapse editor save-as-rewrite bursts
// into one reload, and a list of callbacks notified after each reload.
type Watcher struct {
	loader  *Loader
	mu      sync.RWMutex
	current *Config

	callbacks []ChangeCallback

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc

	reloadDelay time.Duration
	lastReload  time.Time
}

// NewWatcher builds a Watcher around loader, performing an initial Load.
func NewWatcher(loader *Loader) (*Watcher, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return &Watcher{loader: loader, current: cfg, reloadDelay: time.Second}, nil
}

// Current returns the presently active config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback run after every successful reload.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the config file for changes; it returns once the
// watch is established, and runs the watch loop in a background goroutine
// until Stop is called.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.loader.configPath); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.watchLoop(ctx)
	return nil
}

// Stop ends the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsw != nil {
		w.fsw.Close()
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			since := time.Since(w.lastReload)
			w.mu.Unlock()
			if since < w.reloadDelay {
				continue
			}
			w.reload()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	newCfg, err := w.loader.Load()
	if err != nil {
		return
	}

	w.mu.Lock()
	oldCfg := w.current
	w.current = newCfg
	w.lastReload = time.Now()
	callbacks := append([]ChangeCallback(nil), w.callbacks...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(oldCfg, newCfg)
	}
}
