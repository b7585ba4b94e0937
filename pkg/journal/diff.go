package journal

import (
	"strconv"

	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// Diff derives the journal events between two store snapshots. The store
// coalesces nested mutations, so a single transition may yield several
// events (for example a reset followed by a new start).
func Diff(prev, next walkthrough.Snapshot) []Event {
	var out []Event

	newRun := next.IsActive && next.TrainingInstanceID != prev.TrainingInstanceID
	if prev.IsActive && (!next.IsActive || newRun) {
		out = append(out, Event{
			Kind:     KindReset,
			Track:    prev.ActiveTraining,
			Step:     prev.CurrentStep,
			Instance: prev.TrainingInstanceID,
			Data:     map[string]string{"completed": strconv.FormatBool(prev.Completed)},
		})
	}

	if newRun {
		out = append(out, stepEvent(KindStarted, next))
	} else if next.IsActive && prev.IsActive && next.CurrentStep != prev.CurrentStep {
		out = append(out, stepEvent(KindStep, next))
	}

	if next.IsActive && next.Completed && (newRun || !prev.Completed) {
		e := stepEvent(KindCompleted, next)
		e.Data = map[string]string{"steps": strconv.Itoa(len(next.Steps))}
		out = append(out, e)
	}

	switch {
	case prev.Detour == nil && next.Detour != nil:
		e := stepEvent(KindDetour, next)
		e.Data = map[string]string{
			"forced":      next.Detour.ForcedSubState,
			"return_path": next.Detour.ReturnPath,
			"return_to":   strconv.Itoa(next.Detour.ReturnToIndex),
		}
		out = append(out, e)
	case prev.Detour != nil && next.Detour == nil && next.IsActive && !newRun:
		out = append(out, stepEvent(KindResume, next))
	}
	return out
}

func stepEvent(kind Kind, snap walkthrough.Snapshot) Event {
	e := Event{
		Kind:     kind,
		Track:    snap.ActiveTraining,
		Step:     snap.CurrentStep,
		Instance: snap.TrainingInstanceID,
	}
	if step, ok := snap.Step(); ok {
		e.Selector = step.Selector
	}
	return e
}
