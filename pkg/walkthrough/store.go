package walkthrough

import (
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
)

// Common errors.
var (
	ErrEmptyTrack     = errors.New("track has no steps")
	ErrStepOutOfRange = errors.New("step index out of range")
	ErrInactive       = errors.New("no training is active")
	ErrNoDetour       = errors.New("no detour in progress")
	ErrStaleDetour    = errors.New("detour belongs to a previous training run")
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	IsActive           bool
	ActiveTraining     string
	Steps              []Step
	CurrentStep        int
	Completed          bool
	CompletedTrainings map[string]bool
	TrainingInstanceID uint64
	SettingsHighlight  string
	Detour             *DetourToken
}

// Step returns the current step with a bounds check. It never panics on index
// drift.
func (s Snapshot) Step() (Step, bool) {
	if !s.IsActive || s.CurrentStep < 0 || s.CurrentStep >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[s.CurrentStep], true
}

// HasCompleted reports whether the named track finished at some point in this session.
func (s Snapshot) HasCompleted(track string) bool {
	return s.CompletedTrainings[track]
}

// Store is the single source of truth for the walkthrough session. All fields
// are private; callers mutate only through the methods below and read through
// Snapshot.
type Store struct {
	mu sync.Mutex

	isActive           bool
	activeTraining     string
	steps              []Step
	currentStep        int
	completed          bool
	completedTrainings map[string]bool
	trainingInstanceID uint64
	settingsHighlight  string
	detour             *DetourToken

	subs      map[int]func(Snapshot)
	nextSubID int
	notifying bool
	dirty     bool
}

// NewStore creates an inactive session.
func NewStore() *Store {
	return &Store{
		completedTrainings: make(map[string]bool),
		subs:               make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		IsActive:           s.isActive,
		ActiveTraining:     s.activeTraining,
		Steps:              s.steps,
		CurrentStep:        s.currentStep,
		Completed:          s.completed,
		CompletedTrainings: maps.Clone(s.completedTrainings),
		TrainingInstanceID: s.trainingInstanceID,
		SettingsHighlight:  s.settingsHighlight,
	}
	if s.detour != nil {
		d := *s.detour
		snap.Detour = &d
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned function removes the subscription.
//
// Observers run synchronously on the mutating goroutine. A mutation made from
// inside an observer is not delivered re-entrantly; the outer delivery loop
// restarts with the newest snapshot so observers never see states out of order.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// StartTraining loads steps under name and activates the session at index 0.
// Starting while another track is active replaces it.
func (s *Store) StartTraining(name string, steps []Step) error {
	if name == "" || len(steps) == 0 {
		return ErrEmptyTrack
	}
	s.mu.Lock()
	s.isActive = true
	s.activeTraining = name
	s.steps = slices.Clone(steps)
	s.currentStep = 0
	s.completed = false
	s.detour = nil
	s.trainingInstanceID++
	s.mu.Unlock()

	s.publish()
	return nil
}

// StartTrack is StartTraining for a registry track.
func (s *Store) StartTrack(t Track) error {
	return s.StartTraining(t.Name, t.Steps)
}

// Next advances one step. On the last step it completes the track instead, so
// CurrentStep never leaves the step list.
func (s *Store) Next() {
	s.mu.Lock()
	if !s.isActive || s.completed || len(s.steps) == 0 {
		s.mu.Unlock()
		return
	}
	if s.currentStep < len(s.steps)-1 {
		s.currentStep++
	} else {
		s.completeLocked()
	}
	s.mu.Unlock()

	s.publish()
}

// GoTo jumps to index. Out-of-range indices are rejected and leave the state
// untouched.
func (s *Store) GoTo(index int) error {
	s.mu.Lock()
	if !s.isActive {
		s.mu.Unlock()
		return ErrInactive
	}
	if index < 0 || index >= len(s.steps) {
		s.mu.Unlock()
		return ErrStepOutOfRange
	}
	s.currentStep = index
	s.mu.Unlock()

	s.publish()
	return nil
}

// Complete marks the active track as finished. Calling it again is a no-op.
// It does not clear IsActive or Steps.
func (s *Store) Complete() {
	s.mu.Lock()
	if s.activeTraining == "" || (s.completed && s.completedTrainings[s.activeTraining]) {
		s.mu.Unlock()
		return
	}
	s.completeLocked()
	s.mu.Unlock()

	s.publish()
}

func (s *Store) completeLocked() {
	s.completed = true
	s.completedTrainings[s.activeTraining] = true
}

// Reset returns to the inactive baseline without marking the in-progress
// track complete. CompletedTrainings survives.
func (s *Store) Reset() {
	s.mu.Lock()
	s.isActive = false
	s.activeTraining = ""
	s.steps = nil
	s.currentStep = 0
	s.completed = false
	s.detour = nil
	s.mu.Unlock()

	s.publish()
}

// SetSettingsHighlight sets the out-of-band detour marker.
func (s *Store) SetSettingsHighlight(value string) {
	s.mu.Lock()
	if s.settingsHighlight == value {
		s.mu.Unlock()
		return
	}
	s.settingsHighlight = value
	s.mu.Unlock()

	s.publish()
}

// CompletedTrainings returns the sorted names of every finished track.
func (s *Store) CompletedTrainings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.completedTrainings))
	for name, done := range s.completedTrainings {
		if done {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// publish delivers the newest snapshot to every subscriber, coalescing
// mutations that happen during delivery.
func (s *Store) publish() {
	s.mu.Lock()
	if s.notifying {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.notifying = true

	for {
		s.dirty = false
		snap := s.snapshotLocked()
		ids := make([]int, 0, len(s.subs))
		for id := range s.subs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		s.mu.Unlock()

		for _, id := range ids {
			s.mu.Lock()
			fn, ok := s.subs[id]
			stale := s.dirty
			s.mu.Unlock()
			if stale {
				break
			}
			if ok {
				fn(snap)
			}
		}

		s.mu.Lock()
		if !s.dirty {
			s.notifying = false
			s.mu.Unlock()
			return
		}
	}
}
