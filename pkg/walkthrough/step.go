// Package walkthrough implements the guided training engine for the tableside
// shell: a session store holding the active track, a controller that anchors
// each step to a live screen element, and the page-side helpers (integration
// contract, detours, chaining) that drive advancement.
//
// The engine never panics into the host. Missing elements, index drift and
// stale timers all degrade to "nothing highlighted yet".
package walkthrough

import (
	"errors"
	"fmt"
)

// AdvancePolicy selects which interaction moves a step forward.
type AdvancePolicy string

const (
	// AdvanceDescription advances when the popover description is clicked.
	AdvanceDescription AdvancePolicy = "description"
	// AdvanceUI delegates advancement to the target element's own handler.
	AdvanceUI AdvancePolicy = "ui"
	// AdvanceBoth accepts either trigger.
	AdvanceBoth AdvancePolicy = "both"
)

// OnAdvance is a directive evaluated once a step is highlighted.
type OnAdvance string

const (
	// AutoCloseAndNavigateHome completes the track and routes home after a fixed delay.
	AutoCloseAndNavigateHome OnAdvance = "autoCloseAndNavigateHome"
)

// Step is one immutable unit of guidance.
type Step struct {
	Selector     string        `yaml:"selector" json:"selector"`
	Page         string        `yaml:"page,omitempty" json:"page,omitempty"`
	Content      string        `yaml:"content" json:"content"`
	Placement    string        `yaml:"placement,omitempty" json:"placement,omitempty"`
	Align        string        `yaml:"align,omitempty" json:"align,omitempty"`
	StageRadius  int           `yaml:"stage_radius,omitempty" json:"stageRadius,omitempty"`
	StagePadding int           `yaml:"stage_padding,omitempty" json:"stagePadding,omitempty"`
	AdvanceOn    AdvancePolicy `yaml:"advance_on,omitempty" json:"advanceOn,omitempty"`
	SetCategory  string        `yaml:"set_category,omitempty" json:"setCategory,omitempty"`
	OnAdvance    OnAdvance     `yaml:"on_advance,omitempty" json:"onAdvance,omitempty"`
}

// Policy returns the effective advancement policy, defaulting to description.
func (s Step) Policy() AdvancePolicy {
	if s.AdvanceOn == "" {
		return AdvanceDescription
	}
	return s.AdvanceOn
}

// AdvancesOnDescription reports whether a description click moves the step forward.
func (s Step) AdvancesOnDescription() bool {
	p := s.Policy()
	return p == AdvanceDescription || p == AdvanceBoth
}

// AdvancesOnUI reports whether the target element's own handler moves the step forward.
func (s Step) AdvancesOnUI() bool {
	p := s.Policy()
	return p == AdvanceUI || p == AdvanceBoth
}

// Terminal reports whether the step carries the auto-close directive.
func (s Step) Terminal() bool {
	return s.OnAdvance == AutoCloseAndNavigateHome
}

// Validate checks a single step descriptor.
func (s Step) Validate() error {
	if s.Selector == "" {
		return errors.New("selector is required")
	}
	switch s.AdvanceOn {
	case "", AdvanceDescription, AdvanceUI, AdvanceBoth:
	default:
		return fmt.Errorf("unknown advance_on %q", s.AdvanceOn)
	}
	switch s.OnAdvance {
	case "", AutoCloseAndNavigateHome:
	default:
		return fmt.Errorf("unknown on_advance %q", s.OnAdvance)
	}
	return nil
}

// Track is a named, ordered sequence of steps.
type Track struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Validate checks that the track is usable by the store.
func (t Track) Validate() error {
	if t.Name == "" {
		return errors.New("track name is required")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("track %q: %w", t.Name, ErrEmptyTrack)
	}
	for i, s := range t.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("track %q step %d: %w", t.Name, i, err)
		}
		if s.Terminal() && i != len(t.Steps)-1 {
			return fmt.Errorf("track %q step %d: %s must be the last step", t.Name, i, s.OnAdvance)
		}
	}
	return nil
}

// IndexOf returns the first step index targeting selector, or -1.
func (t Track) IndexOf(selector string) int {
	return indexOf(t.Steps, selector)
}

func indexOf(steps []Step, selector string) int {
	for i, s := range steps {
		if s.Selector == selector {
			return i
		}
	}
	return -1
}
