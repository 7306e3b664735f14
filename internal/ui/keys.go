package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Record key.Binding
	Send   key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Record: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "record"),
	),
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "close"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Send, k.Clear, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
