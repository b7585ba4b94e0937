package walkthrough

// AdvanceIfTarget is the page side of the advancement contract. Page handlers
// call it from their normal activation logic with their own selector hook; it
// calls Next when a training is active, the current step targets that hook and
// the step accepts UI advancement. It reports whether the store advanced.
//
// Walkthrough advancement is an extra side effect: callers run their business
// logic regardless of the result.
func AdvanceIfTarget(store *Store, selector string) bool {
	if !IsCurrentTarget(store, selector) {
		return false
	}
	step, _ := store.Snapshot().Step()
	if !step.AdvancesOnUI() {
		return false
	}
	store.Next()
	return true
}

// IsCurrentTarget reports whether the active, uncompleted step targets selector.
func IsCurrentTarget(store *Store, selector string) bool {
	snap := store.Snapshot()
	if snap.Completed {
		return false
	}
	step, ok := snap.Step()
	return ok && step.Selector == selector
}

// ResumeAt jumps to the first step of the active track targeting selector.
// Pages use it to pick the track back up after a detour that landed them on a
// known element.
func ResumeAt(store *Store, selector string) error {
	snap := store.Snapshot()
	if !snap.IsActive {
		return ErrInactive
	}
	idx := indexOf(snap.Steps, selector)
	if idx < 0 {
		return ErrStepOutOfRange
	}
	return store.GoTo(idx)
}
