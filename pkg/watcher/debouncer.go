package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration coalesces editor save bursts (write, chmod, rename).
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer runs only the last callback of a burst of triggers.
type Debouncer struct {
	duration time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	seq      uint64
}

// NewDebouncer returns a debouncer. A non-positive duration selects
// DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Trigger (re)arms the debouncer with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := d.seq == seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce window.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
