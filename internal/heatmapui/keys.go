package heatmapui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Older   key.Binding
	Newer   key.Binding
	Rolling key.Binding
	Details key.Binding
	Handle  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Back    key.Binding
}

var keys = keyMap{
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev week"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next week"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "prev day"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next day"),
	),
	Older: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "older year"),
	),
	Newer: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "newer year"),
	),
	Rolling: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "last 365 days"),
	),
	Details: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "day details"),
	),
	Handle: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "switch handle"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Older, k.Newer, k.Rolling, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Older, k.Newer, k.Rolling},
		{k.Details, k.Handle, k.Help, k.Quit},
	}
}
