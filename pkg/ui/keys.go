package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap is the shell's key bindings. It implements help.KeyMap.
type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Continue key.Binding
	Copy     key.Binding
	Home     key.Binding
	Retry    key.Binding
	Train    key.Binding
	Skip     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down", "j"),
			key.WithHelp("tab/↓", "next element"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "k"),
			key.WithHelp("shift+tab/↑", "previous element"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Continue: key.NewBinding(
			key.WithKeys(" ", "n"),
			key.WithHelp("space", "continue training"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy step text"),
		),
		Home: key.NewBinding(
			key.WithKeys("esc", "h"),
			key.WithHelp("esc", "home"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry highlight"),
		),
		Train: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "start training"),
		),
		Skip: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "skip training"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Continue, k.Home, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Activate, k.Home},
		{k.Continue, k.Copy, k.Retry},
		{k.Train, k.Skip, k.Help, k.Quit},
	}
}
