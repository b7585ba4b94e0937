// Package watcher reloads the tracks file while the terminal shell runs.
// It prefers fsnotify and falls back to stat polling when inotify is
// unavailable or TABLESIDE_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/tableside/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce window.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the interval used in polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked after a debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll skips fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors one file.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	lastMtime time.Time
	lastSize  int64

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// New creates a watcher for path. The file does not need to exist yet.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching in background goroutines.
func (w *Watcher) Start() error {
	return w.start(context.Background())
}

// Run watches until ctx is cancelled, then stops the watcher. It returns
// nil on cancellation so it can sit in an errgroup next to the UI.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

func (w *Watcher) start(parent context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	w.ctx, w.cancel = context.WithCancel(parent)
	w.polling = w.forcePoll || envBool("TABLESIDE_FORCE_POLL")

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMtime = info.ModTime()
		w.lastSize = info.Size()
	case os.IsPermission(err):
		w.cancel()
		return ErrPermission
	default:
		w.lastMtime = time.Time{}
		w.lastSize = 0
	}

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// Watch the directory so atomic rename-into-place saves are seen.
			if err := fsw.Add(filepath.Dir(w.path)); err != nil {
				fsw.Close()
				w.polling = true
			} else {
				w.fsWatcher = fsw
			}
		} else {
			w.polling = true
		}
	}

	if w.polling {
		debug.Log("watcher: polling %s every %v", w.path, w.pollInterval)
		go w.watchPolling(w.ctx)
	} else {
		debug.Log("watcher: fsnotify on %s", w.path)
		go w.watchFsnotify(w.ctx, w.fsWatcher)
	}

	w.started = true
	return nil
}

// Stop ends watching. The Changed channel stays open.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the watcher fell back to stat polling.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives after each debounced change.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string {
	return w.path
}

// PollInterval returns the interval used in polling mode.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				switch {
				case os.IsNotExist(err):
					w.mu.Lock()
					hadFile := !w.lastMtime.IsZero()
					w.lastMtime = time.Time{}
					w.lastSize = 0
					w.mu.Unlock()
					if hadFile {
						w.onError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}

			w.mu.Lock()
			changed := info.ModTime().After(w.lastMtime) || info.Size() != w.lastSize
			if changed {
				w.lastMtime = info.ModTime()
				w.lastSize = info.Size()
			}
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
