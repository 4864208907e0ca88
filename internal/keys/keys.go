package keys

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/config"
)

type KeyName int

const (
	KeyNone KeyName = iota
	KeyUp
	KeyDown
	KeyEnter
	KeySpace
	KeyEscape
	KeyBackspace
	KeyCreate
	KeyEdit
	KeyDelete
	KeyToggleSync
	KeyHelp
	KeyQuit      // typed as text while an edit buffer is open
	KeyForceQuit // ctrl+c / ctrl+d
)

// Map resolves key presses to names for one keymap.
type Map struct {
	names    map[string]KeyName
	bindings map[KeyName]key.Binding
}

func Default() *Map {
	return New(config.DefaultKeymap())
}

// New builds a Map from km. Arrows, enter, esc, backspace and ctrl+c/ctrl+d
// are always bound; unset entries in km take their defaults.
func New(km config.Keymap) *Map {
	km = km.WithDefaults()
	m := &Map{
		names: map[string]KeyName{
			"up":        KeyUp,
			"down":      KeyDown,
			"enter":     KeyEnter,
			" ":         KeySpace,
			"esc":       KeyEscape,
			"backspace": KeyBackspace,
			"ctrl+c":    KeyForceQuit,
			"ctrl+d":    KeyForceQuit,
		},
		bindings: make(map[KeyName]key.Binding),
	}
	for _, b := range []struct {
		name KeyName
		key  string
	}{
		{KeyUp, km.Up},
		{KeyDown, km.Down},
		{KeyCreate, km.Create},
		{KeyEdit, km.Edit},
		{KeyDelete, km.Delete},
		{KeyToggleSync, km.ToggleSync},
		{KeyHelp, km.Help},
		{KeyQuit, km.Quit},
	} {
		if _, reserved := m.names[b.key]; !reserved {
			m.names[b.key] = b.name
		}
	}

	m.bindings[KeyUp] = key.NewBinding(key.WithKeys("up", km.Up), key.WithHelp("↑/"+km.Up, "up"))
	m.bindings[KeyDown] = key.NewBinding(key.WithKeys("down", km.Down), key.WithHelp("↓/"+km.Down, "down"))
	m.bindings[KeyEnter] = key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "open"))
	m.bindings[KeySpace] = key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("↵/space", "toggle done"))
	m.bindings[KeyEscape] = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	m.bindings[KeyCreate] = key.NewBinding(key.WithKeys(km.Create), key.WithHelp(km.Create, "create"))
	m.bindings[KeyEdit] = key.NewBinding(key.WithKeys(km.Edit), key.WithHelp(km.Edit, "edit"))
	m.bindings[KeyDelete] = key.NewBinding(key.WithKeys(km.Delete), key.WithHelp(km.Delete, "delete"))
	m.bindings[KeyToggleSync] = key.NewBinding(key.WithKeys(km.ToggleSync), key.WithHelp(km.ToggleSync, "toggle sync"))
	m.bindings[KeyHelp] = key.NewBinding(key.WithKeys(km.Help), key.WithHelp(km.Help, "help"))
	m.bindings[KeyQuit] = key.NewBinding(key.WithKeys(km.Quit, "ctrl+c", "ctrl+d"), key.WithHelp(km.Quit, "quit"))
	return m
}

// Lookup resolves msg to a key name. Unknown keys return KeyNone, false.
func (m *Map) Lookup(msg tea.KeyMsg) (KeyName, bool) {
	name, ok := m.names[msg.String()]
	if !ok {
		return KeyNone, false
	}
	return name, true
}

func (m *Map) Binding(name KeyName) key.Binding {
	return m.bindings[name]
}

// Text returns the printable text carried by msg, if any. Alt-modified and
// control keys carry none.
func Text(msg tea.KeyMsg) (string, bool) {
	if msg.Alt {
		return "", false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return "", false
		}
		return string(msg.Runes), true
	case tea.KeySpace:
		return " ", true
	default:
		return "", false
	}
}

func (m *Map) ProfileBindings() []key.Binding {
	return m.pick(KeyUp, KeyDown, KeyEnter, KeyHelp, KeyQuit)
}

func (m *Map) TaskBindings() []key.Binding {
	return m.pick(KeyUp, KeyDown, KeySpace, KeyCreate, KeyEdit, KeyDelete, KeyToggleSync, KeyEscape, KeyQuit)
}

func (m *Map) pick(names ...KeyName) []key.Binding {
	out := make([]key.Binding, 0, len(names))
	for _, n := range names {
		out = append(out, m.bindings[n])
	}
	return out
}

// EditBindings are shown while an edit buffer is open.
func EditBindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "save")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "delete char")),
	}
}
