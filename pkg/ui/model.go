// Package ui is the tableside terminal shell: a bubbletea program with one
// screen per POS route and the training popover layered on top. Screens
// expose selector hooks so the walkthrough engine can find, highlight and
// click them the same way a trainee would.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tableside/pkg/tracks"
	"github.com/vanderheijden86/tableside/pkg/walkthrough"
)

// TracksReloadedMsg delivers a registry re-read from disk.
type TracksReloadedMsg struct {
	Registry *tracks.Registry
}

// TracksErrorMsg reports a tracks file that failed to reload.
type TracksErrorMsg struct {
	Err error
}

// Model is the bubbletea model. Copies share the underlying shell.
type Model struct {
	app      *app
	keys     keyMap
	help     help.Model
	width    int
	height   int
	showHelp bool
	quitting bool
}

// New builds the shell and starts the first-run chain when configured to.
func New(opts Options) (Model, error) {
	a, err := newApp(opts)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		app:    a,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  100,
		height: 30,
	}
	a.start()
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.app.teaSched != nil {
		return m.app.teaSched.Wait()
	}
	return nil
}

// Close detaches the engine from the store.
func (m Model) Close() {
	m.app.close()
}

// Store returns the walkthrough store the shell drives.
func (m Model) Store() *walkthrough.Store {
	return m.app.store
}

// Path returns the current route.
func (m Model) Path() string {
	return m.app.path
}

// StartTraining starts the named track, replacing any active one.
func (m Model) StartTraining(name string) error {
	return m.app.startTraining(name)
}

// Highlighted returns the selector under the training popover, if any.
func (m Model) Highlighted() (string, bool) {
	h := m.app.overlay.Current()
	if h == nil {
		return "", false
	}
	return h.Step.Selector, true
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case timerFiredMsg:
		m.app.teaSched.Fire(msg.id)
		return m, m.app.teaSched.Wait()

	case TracksReloadedMsg:
		if msg.Registry != nil {
			m.app.reload(msg.Registry)
		}
		return m, nil

	case TracksErrorMsg:
		m.app.status = "tracks: " + msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.app

	if m.showHelp {
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Next):
		a.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		a.moveFocus(-1)
	case key.Matches(msg, m.keys.Activate):
		a.activate()
	case key.Matches(msg, m.keys.Continue):
		if a.overlay.Current() == nil {
			a.status = "no training step to continue"
			break
		}
		a.controller.ClickDescription()
	case key.Matches(msg, m.keys.Copy):
		a.copyStep()
	case key.Matches(msg, m.keys.Home):
		a.Navigate(a.homePath())
	case key.Matches(msg, m.keys.Retry):
		a.retry()
	case key.Matches(msg, m.keys.Train):
		a.startFirstRun()
	case key.Matches(msg, m.keys.Skip):
		if a.store.Snapshot().IsActive {
			a.detour.Cancel()
			a.store.Reset()
			a.status = "training skipped"
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	a := m.app
	t := a.theme

	header := m.renderHeader()

	if m.showHelp {
		m.help.ShowAll = true
		return lipgloss.JoinVertical(lipgloss.Left, header, "", m.help.View(m.keys))
	}

	popW := 0
	if a.overlay.Current() != nil {
		popW = popoverWidth(m.width)
	}
	screenW := m.width - 4
	if popW > 0 && sideBySide(a.overlay.Current().Step.Placement) {
		screenW -= popW + SpaceXS
	}
	if screenW < 24 {
		screenW = 24
	}

	screen := PanelStyle.Width(screenW).Render(m.renderScreen(screenW - 2))
	body := screen
	if card := a.overlay.render(t, popW); card != "" {
		switch a.overlay.Current().Step.Placement {
		case "left":
			body = lipgloss.JoinHorizontal(lipgloss.Top, card, " ", screen)
		case "right":
			body = lipgloss.JoinHorizontal(lipgloss.Top, screen, " ", card)
		case "top":
			body = lipgloss.JoinVertical(lipgloss.Left, card, screen)
		default:
			body = lipgloss.JoinVertical(lipgloss.Left, screen, card)
		}
	}

	m.help.ShowAll = false
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

func sideBySide(placement string) bool {
	return placement == "left" || placement == "right"
}

func (m Model) renderHeader() string {
	a := m.app
	left := a.theme.Header.Render("tableside") + " " + a.theme.PrimaryBold.Render(routeTitles[a.path])

	right := ""
	snap := a.store.Snapshot()
	if snap.IsActive && !snap.Completed {
		right = RenderTrainingBadge(snap.ActiveTraining, snap.CurrentStep, len(snap.Steps))
	} else if done := len(snap.CompletedTrainings); done > 0 {
		right = a.theme.MutedText.Render(fmt.Sprintf("%d tracks completed", done))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderScreen(width int) string {
	a := m.app
	els := a.elements()
	a.clampFocus(len(els))

	target := ""
	if h := a.overlay.Current(); h != nil {
		target = h.Step.Selector
	}
	anchored := false

	labelW := width / 2
	if labelW < 12 {
		labelW = 12
	}

	var lines []string
	for i, el := range els {
		cursor := "  "
		if i == a.focus {
			cursor = a.theme.PrimaryBold.Render("› ")
		}
		label := padRight(truncate(el.label, labelW), labelW)
		detail := ""
		if el.detail != "" {
			detail = a.theme.MutedText.Render(truncate(el.detail, width-labelW-4))
		}
		if strings.HasPrefix(el.selector, ".table-card-") {
			detail = RenderTableBadge(a.tableState(tableNumber(el.label))) + " " + detail
		}
		line := cursor + label + " " + detail

		if !anchored && el.selector == target {
			anchored = true
			line = a.theme.Target.Render(cursor + label + " " + detail)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return a.theme.MutedText.Render("nothing here")
	}
	return strings.Join(lines, "\n")
}

func tableNumber(label string) int {
	var n int
	if _, err := fmt.Sscanf(label, "Table %d", &n); err != nil {
		return 0
	}
	return n
}

func (a *app) tableState(number int) string {
	for _, t := range a.pos.tables {
		if t.number == number {
			return t.state
		}
	}
	return ""
}

func (m Model) renderStatus() string {
	a := m.app
	ctx := m.CurrentContext()
	parts := []string{ctx.Description()}
	if ctx == ContextStalled && a.stallErr != nil {
		parts = append(parts, ErrorStyle.Render(a.status))
	} else if a.status != "" {
		parts = append(parts, a.status)
	}
	return StatusBarStyle.Render(truncate(strings.Join(parts, " · "), m.width))
}
