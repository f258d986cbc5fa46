package config

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often the watcher checks the file.
const DefaultPollInterval = 5 * time.Second

// ChangeFunc receives the freshly loaded configuration.
type ChangeFunc func(*Config)

// Watcher polls a config file's modification time and reloads it when
// it changes. A reload that fails validation is logged and skipped; the
// previous configuration stays in effect.
type Watcher struct {
	loader   *Loader
	path     string
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	callbacks []ChangeFunc
	lastMod   time.Time
	cancel    context.CancelFunc
}

// NewWatcher creates a watcher over path using the given loader.
func NewWatcher(loader *Loader, path string, logger *zap.Logger) *Watcher {
	return &Watcher{
		loader:   loader.WithConfigPath(path),
		path:     path,
		interval: DefaultPollInterval,
		logger:   logger.With(zap.String("component", "config-watcher")),
	}
}

// SetInterval overrides the polling interval. Call before Start.
func (w *Watcher) SetInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn ChangeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins polling until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	if info, err := os.Stat(w.path); err == nil {
		w.lastMod = info.ModTime()
	}
	w.mu.Unlock()

	go w.loop(ctx)
}

// Stop halts polling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.lastMod)
	if changed {
		w.lastMod = info.ModTime()
	}
	w.mu.Unlock()
	if !changed {
		return
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous", zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("config reload invalid, keeping previous", zap.Error(err))
		return
	}

	w.logger.Info("config reloaded", zap.String("path", w.path))
	w.mu.Lock()
	callbacks := make([]ChangeFunc, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
}
