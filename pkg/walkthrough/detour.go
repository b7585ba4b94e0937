package walkthrough

import "time"

// DetourToken records where a track must resume after a temporary visit to
// another screen. It replaces a bare string sentinel: the token carries the
// track run it belongs to, so a resume after the track was restarted is
// detected instead of silently stalling.
type DetourToken struct {
	ReturnToTrack  string
	ReturnToIndex  int
	ReturnPath     string
	ForcedSubState string
	InstanceID     uint64
}

// BeginDetour stores token for the active track and publishes
// token.ForcedSubState as the settings highlight marker. ReturnToTrack and
// InstanceID are filled in from the session.
func (s *Store) BeginDetour(token DetourToken) error {
	s.mu.Lock()
	if !s.isActive {
		s.mu.Unlock()
		return ErrInactive
	}
	if token.ReturnToIndex < 0 || token.ReturnToIndex >= len(s.steps) {
		s.mu.Unlock()
		return ErrStepOutOfRange
	}
	token.ReturnToTrack = s.activeTraining
	token.InstanceID = s.trainingInstanceID
	s.detour = &token
	s.settingsHighlight = token.ForcedSubState
	s.mu.Unlock()

	s.publish()
	return nil
}

// Detour returns the pending detour token, if any.
func (s *Store) Detour() (DetourToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detour == nil {
		return DetourToken{}, false
	}
	return *s.detour, true
}

// ResumeDetour consumes the pending token, clears the marker and jumps back to
// the recorded step. The token is returned so the caller can navigate to
// ReturnPath. A token from an earlier run of the track is discarded with
// ErrStaleDetour.
func (s *Store) ResumeDetour() (DetourToken, error) {
	s.mu.Lock()
	if s.detour == nil {
		s.mu.Unlock()
		return DetourToken{}, ErrNoDetour
	}
	token := *s.detour
	s.detour = nil
	s.settingsHighlight = ""

	var err error
	switch {
	case !s.isActive || token.InstanceID != s.trainingInstanceID || token.ReturnToTrack != s.activeTraining:
		err = ErrStaleDetour
	case token.ReturnToIndex >= len(s.steps):
		err = ErrStepOutOfRange
	default:
		s.currentStep = token.ReturnToIndex
	}
	s.mu.Unlock()

	s.publish()
	return token, err
}

// CancelDetour drops any pending token and clears the marker.
func (s *Store) CancelDetour() {
	s.mu.Lock()
	if s.detour == nil && s.settingsHighlight == "" {
		s.mu.Unlock()
		return
	}
	s.detour = nil
	s.settingsHighlight = ""
	s.mu.Unlock()

	s.publish()
}

// Detour drives the page side of a round trip: page A begins it, page B reads
// the forced sub-state and, after the configured delay, finishes it.
type Detour struct {
	store     *Store
	router    Router
	scheduler Scheduler
	delay     time.Duration
	pending   Timer
}

// NewDetour wires a detour helper. delay is usually Timings.Detour.
func NewDetour(store *Store, router Router, scheduler Scheduler, delay time.Duration) *Detour {
	return &Detour{store: store, router: router, scheduler: scheduler, delay: delay}
}

// Begin records the return point, publishes the forced sub-state and routes to
// targetPath.
func (d *Detour) Begin(forced, targetPath string, returnIndex int) error {
	err := d.store.BeginDetour(DetourToken{
		ReturnToIndex:  returnIndex,
		ReturnPath:     d.router.Path(),
		ForcedSubState: forced,
	})
	if err != nil {
		return err
	}
	d.router.Navigate(targetPath)
	return nil
}

// ScheduleFinish arms the timed return. done, if non-nil, receives the result
// of Finish. Re-arming cancels the previous timer.
func (d *Detour) ScheduleFinish(done func(error)) {
	d.Cancel()
	d.pending = d.scheduler.AfterFunc(d.delay, func() {
		d.pending = nil
		err := d.Finish()
		if done != nil {
			done(err)
		}
	})
}

// Finish resumes the track immediately and routes back to the page the detour
// started from.
func (d *Detour) Finish() error {
	token, err := d.store.ResumeDetour()
	if err != nil {
		return err
	}
	if token.ReturnPath != "" && token.ReturnPath != d.router.Path() {
		d.router.Navigate(token.ReturnPath)
	}
	return nil
}

// Cancel stops a scheduled finish.
func (d *Detour) Cancel() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
