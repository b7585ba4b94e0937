package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/tracks"
)

// TracksReloader re-parses the tracks file whenever it changes. A file
// that fails to parse leaves the previous registry in place and is
// reported through the error callback.
type TracksReloader struct {
	watcher  *Watcher
	onReload func(*tracks.Registry)
	onError  func(error)
}

// NewTracksReloader watches path. onReload runs on the watcher goroutine;
// UI callers forward the registry into their event loop.
func NewTracksReloader(path string, onReload func(*tracks.Registry), onError func(error), opts ...Option) (*TracksReloader, error) {
	if onReload == nil {
		return nil, errors.New("tracks reloader: nil reload callback")
	}
	if onError == nil {
		onError = func(error) {}
	}
	r := &TracksReloader{onReload: onReload, onError: onError}

	opts = append(opts,
		WithOnChange(r.reload),
		WithOnError(func(err error) {
			r.onError(fmt.Errorf("watching tracks: %w", err))
		}),
	)
	w, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	r.watcher = w
	return r, nil
}

// Run watches until ctx is cancelled.
func (r *TracksReloader) Run(ctx context.Context) error {
	return r.watcher.Run(ctx)
}

// Watcher exposes the underlying file watcher.
func (r *TracksReloader) Watcher() *Watcher {
	return r.watcher
}

func (r *TracksReloader) reload() {
	reg, err := tracks.LoadFile(r.watcher.Path())
	if err != nil {
		debug.Log("watcher: keeping previous tracks: %v", err)
		r.onError(err)
		return
	}
	debug.Log("watcher: reloaded %d tracks from %s", reg.Len(), reg.Source())
	r.onReload(reg)
}
