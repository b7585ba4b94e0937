package walkthrough

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already ran
	// or was stopped.
	Stop() bool
}

// Scheduler schedules deferred callbacks.
//
// The controller assumes callbacks are delivered on the same goroutine that
// drives the rest of the engine (the host's UI loop). Hosts that own an event
// loop should marshal callbacks onto it; see ui.TeaScheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fn func()) Timer

// AfterFunc calls f(d, fn).
func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}

// RealScheduler runs callbacks via time.AfterFunc. Callbacks run on their own
// goroutine, so it is only suitable for hosts that serialize access
// themselves.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualScheduler is a deterministic Scheduler driven by Advance. Callbacks run
// synchronously on the goroutine calling Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManualScheduler returns a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward by d, firing due callbacks in order.
// Callbacks scheduled while advancing fire too if they fall inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDueLocked(target)
		if next == nil {
			s.now = target
			s.compactLocked()
			s.mu.Unlock()
			return
		}
		s.now = next.at
		next.fired = true
		fn := next.fn
		s.mu.Unlock()

		fn()
	}
}

func (s *ManualScheduler) nextDueLocked(limit time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (s *ManualScheduler) compactLocked() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
}

// Pending returns the number of callbacks that have neither fired nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Now returns the virtual elapsed time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
