package ui

import "github.com/vanderheijden86/tableside/pkg/walkthrough"

// Context represents the current UI context for the status bar and help.
type Context string

const (
	// Overlays (highest priority)
	ContextHelp Context = "help"

	// Training states
	ContextStalled  Context = "stalled"
	ContextDetour   Context = "detour"
	ContextTraining Context = "training"
	ContextFinished Context = "finished"

	// Default
	ContextBrowse Context = "browse"
)

// CurrentContext returns the current UI context identifier.
// Priority order: overlays → training state → default
func (m Model) CurrentContext() Context {
	if m.showHelp {
		return ContextHelp
	}

	switch m.app.controller.State() {
	case walkthrough.StateStalled:
		return ContextStalled
	case walkthrough.StateDetouring:
		return ContextDetour
	case walkthrough.StateAwaitingTarget, walkthrough.StateHighlighting:
		return ContextTraining
	case walkthrough.StateCompleted:
		return ContextFinished
	}
	return ContextBrowse
}

// Description returns a human-readable description of the context.
func (c Context) Description() string {
	descriptions := map[Context]string{
		ContextHelp:     "Help",
		ContextStalled:  "Training paused",
		ContextDetour:   "Training detour",
		ContextTraining: "Training",
		ContextFinished: "Training complete",
		ContextBrowse:   "Browsing",
	}
	if desc, ok := descriptions[c]; ok {
		return desc
	}
	return string(c)
}

// IsOverlay returns true if the context is an overlay (modal/popup)
func (c Context) IsOverlay() bool {
	return c == ContextHelp
}

// IsTraining reports whether a walkthrough currently owns the screen.
func (c Context) IsTraining() bool {
	switch c {
	case ContextStalled, ContextDetour, ContextTraining:
		return true
	}
	return false
}
