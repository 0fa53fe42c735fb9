package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Continue key.Binding
	Previous key.Binding
	AutoPlay key.Binding
	Reset    key.Binding
	Help     key.Binding
	Back     key.Binding
	Quit     key.Binding
	Scroll   key.Binding

	Submit key.Binding
	Preset key.Binding
	Cycle  key.Binding
	Attach key.Binding
	Detach key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Continue: key.NewBinding(key.WithKeys("right", "l", "enter", " "), key.WithHelp("→/enter", "continue")),
		Previous: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
		AutoPlay: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "auto-play")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset session")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Scroll:   key.NewBinding(key.WithKeys("up", "down", "pgup", "pgdown"), key.WithHelp("↑/↓", "scroll board")),

		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start lesson")),
		Preset: key.NewBinding(key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4"), key.WithHelp("alt+1..4", "sample question")),
		Cycle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "cycle samples")),
		Attach: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "attach file")),
		Detach: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "drop attachments")),
	}
}

// boardHelp lists the playback bindings.
type boardHelp struct{ keyMap }

func (k boardHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Previous, k.AutoPlay, k.Help, k.Quit}
}

func (k boardHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Continue, k.Previous, k.Scroll},
		{k.AutoPlay, k.Reset, k.Back},
		{k.Help, k.Quit},
	}
}

// composeHelp lists the bindings available while typing a question.
type composeHelp struct{ keyMap }

func (k composeHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Preset, k.Cycle, k.Attach, k.Quit}
}

func (k composeHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Preset, k.Cycle},
		{k.Attach, k.Detach, k.Back, k.Quit},
	}
}

// presetIndex maps alt+1..4 to a preset slot.
func presetIndex(keyName string) (int, bool) {
	switch keyName {
	case "alt+1":
		return 0, true
	case "alt+2":
		return 1, true
	case "alt+3":
		return 2, true
	case "alt+4":
		return 3, true
	}
	return 0, false
}
