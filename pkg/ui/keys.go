// Package ui provides the Bubble Tea dashboard for the sentinel.
package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit  key.Binding
	Pause key.Binding
	Clear key.Binding
	Logs  key.Binding
	Help  key.Binding
}

func binding(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

// DefaultKeyMap binds single letters; ctrl+c also quits.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:  binding("quit", "q", "ctrl+c"),
		Pause: binding("freeze feed", "p"),
		Clear: binding("clear feed and logs", "c"),
		Logs:  binding("toggle warnings", "l"),
		Help:  binding("more", "?"),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Clear, k.Logs},
		{k.Quit, k.Help},
	}
}
