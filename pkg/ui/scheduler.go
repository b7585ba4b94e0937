package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// timerFiredMsg carries an expired TeaScheduler timer into Update.
type timerFiredMsg struct {
	id uint64
}

// TeaScheduler delivers walkthrough callbacks through the bubbletea event
// loop, so the controller only ever runs on the Update goroutine. Timers
// expire on runtime goroutines but only their id crosses over; the callback
// itself runs from Fire.
type TeaScheduler struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*teaTimer
	fired   chan uint64
	done    chan struct{}
	closed  bool
}

type teaTimer struct {
	s  *TeaScheduler
	id uint64
	t  *time.Timer
	fn func()
}

// NewTeaScheduler returns a scheduler with no pending timers.
func NewTeaScheduler() *TeaScheduler {
	return &TeaScheduler{
		pending: make(map[uint64]*teaTimer),
		fired:   make(chan uint64, 16),
		done:    make(chan struct{}),
	}
}

// AfterFunc implements walkthrough.Scheduler.
func (s *TeaScheduler) AfterFunc(d time.Duration, fn func()) walkthrough.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	tt := &teaTimer{s: s, id: s.seq, fn: fn}
	s.pending[tt.id] = tt
	id := tt.id
	tt.t = time.AfterFunc(d, func() { s.deliver(id) })
	return tt
}

// deliver queues id for Wait. Stopped timers are dropped, and once the
// scheduler is closed nothing reads fired, so the send gives up.
func (s *TeaScheduler) deliver(id uint64) {
	s.mu.Lock()
	_, ok := s.pending[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case s.fired <- id:
	case <-s.done:
	}
}

// Stop implements walkthrough.Timer. An id already queued for delivery is
// dropped by Fire.
func (t *teaTimer) Stop() bool {
	t.s.mu.Lock()
	_, ok := t.s.pending[t.id]
	delete(t.s.pending, t.id)
	t.s.mu.Unlock()

	t.t.Stop()
	return ok
}

// Wait returns a command that blocks until the next timer expires.
func (s *TeaScheduler) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case id := <-s.fired:
			return timerFiredMsg{id: id}
		case <-s.done:
			return nil
		}
	}
}

// Close stops every pending timer and releases goroutines blocked in Wait
// or in delivery. Later timers never fire.
func (s *TeaScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	timers := make([]*teaTimer, 0, len(s.pending))
	for id, tt := range s.pending {
		timers = append(timers, tt)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, tt := range timers {
		tt.t.Stop()
	}
	close(s.done)
}

// Fire runs the callback for id if it is still pending.
func (s *TeaScheduler) Fire(id uint64) bool {
	s.mu.Lock()
	tt, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		return false
	}
	tt.fn()
	return true
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (s *TeaScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
