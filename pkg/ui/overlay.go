package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tableside/pkg/debug"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

const (
	popoverMinWidth = 28
	popoverMaxWidth = 46
)

// popover is the walkthrough overlay: it records the attached highlight,
// moves focus onto the target and renders the step card next to the screen.
type popover struct {
	app     *app
	seq     uint64
	id      uint64
	current *walkthrough.Highlight

	md      *glamour.TermRenderer
	mdWidth int
	cache   map[string]string
}

func newPopover(a *app) *popover {
	return &popover{app: a, cache: make(map[string]string)}
}

// Attach implements walkthrough.Overlay.
func (p *popover) Attach(h walkthrough.Highlight) (walkthrough.Handle, error) {
	if h.Element == nil || p.app.indexOf(h.Step.Selector) < 0 {
		return nil, fmt.Errorf("%s: %w", h.Step.Selector, errAnchorHidden)
	}
	p.seq++
	p.id = p.seq
	p.current = &h
	p.app.focusSelector(h.Step.Selector)
	return popoverHandle{p: p, id: p.id}, nil
}

// Current returns the attached highlight, or nil.
func (p *popover) Current() *walkthrough.Highlight {
	return p.current
}

type popoverHandle struct {
	p  *popover
	id uint64
}

// Destroy implements walkthrough.Handle. Destroying an outdated handle
// leaves a newer highlight alone.
func (h popoverHandle) Destroy() {
	if h.p.id == h.id {
		h.p.current = nil
	}
}

// width picks the card width for a terminal of the given width.
func popoverWidth(termWidth int) int {
	w := termWidth / 3
	if w < popoverMinWidth {
		w = popoverMinWidth
	}
	if w > popoverMaxWidth {
		w = popoverMaxWidth
	}
	return w
}

// markdown renders step content, falling back to the raw text.
func (p *popover) markdown(content string, width int) string {
	if width != p.mdWidth || p.md == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			debug.Log("ui: glamour renderer: %v", err)
			p.md = nil
		} else {
			p.md = r
		}
		p.mdWidth = width
		p.cache = make(map[string]string)
	}
	if out, ok := p.cache[content]; ok {
		return out
	}
	out := content
	if p.md != nil {
		if rendered, err := p.md.Render(content); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	p.cache[content] = out
	return out
}

// hint tells the trainee how the current step advances.
func hint(step walkthrough.Step) string {
	switch {
	case step.Terminal():
		return "finishing up…"
	case step.Policy() == walkthrough.AdvanceUI:
		return "enter: try it"
	case step.Policy() == walkthrough.AdvanceBoth:
		return "enter or space: continue"
	default:
		return "space: continue"
	}
}

// render draws the card for the current highlight.
func (p *popover) render(theme Theme, width int) string {
	h := p.current
	if h == nil {
		return ""
	}
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	title := truncate(fmt.Sprintf("Training · %s", h.Track), inner-8)
	counter := theme.StepCounter.Render(fmt.Sprintf("%d/%d", h.Index+1, h.Total))
	gap := inner - lipgloss.Width(title) - lipgloss.Width(counter)
	if gap < 1 {
		gap = 1
	}
	header := theme.PrimaryBold.Render(title) + strings.Repeat(" ", gap) + counter

	body := p.markdown(h.Step.Content, inner)
	footer := theme.MutedText.Render(truncate(hint(h.Step)+" · c: copy", inner))

	card := lipgloss.JoinVertical(lipgloss.Left,
		header,
		RenderProgressDots(h.Index, h.Total),
		"",
		body,
		"",
		footer,
	)
	return theme.Popover.Width(inner + 2).Render(card)
}

func writeClipboard(s string) error {
	return clipboard.WriteAll(s)
}
