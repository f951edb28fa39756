package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type homeKeys struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Delete key.Binding
	Add    key.Binding
	Name   key.Binding
	Reload key.Binding
	Logout key.Binding
	Quit   key.Binding
}

var keys = homeKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Name:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "name")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Logout: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k homeKeys) short() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Name, k.Reload, k.Logout, k.Quit}
}

var (
	submitKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	nextKey   = key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field"))
	cancelKey = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	signupKey = key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "sign up"))
	loginKey  = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "log in"))
	abortKey  = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
)

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
