package config

import (
	"errors"
	"fmt"
)

var ErrKeyConflict = errors.New("config: key bound twice")

// ReservedKeys are always bound and cannot be remapped.
var ReservedKeys = []string{"up", "down", "enter", " ", "esc", "backspace", "ctrl+c", "ctrl+d"}

type Keymap struct {
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Create     string `toml:"create"`
	Edit       string `toml:"edit"`
	Delete     string `toml:"delete"`
	ToggleSync string `toml:"toggle_sync"`
	Help       string `toml:"help"`
	Quit       string `toml:"quit"`
}

func DefaultKeymap() Keymap {
	return Keymap{
		Up:         "k",
		Down:       "j",
		Create:     "c",
		Edit:       "e",
		Delete:     "d",
		ToggleSync: "s",
		Help:       "?",
		Quit:       "q",
	}
}

// WithDefaults fills unset bindings from DefaultKeymap.
func (k Keymap) WithDefaults() Keymap {
	def := DefaultKeymap()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&k.Up, def.Up)
	fill(&k.Down, def.Down)
	fill(&k.Create, def.Create)
	fill(&k.Edit, def.Edit)
	fill(&k.Delete, def.Delete)
	fill(&k.ToggleSync, def.ToggleSync)
	fill(&k.Help, def.Help)
	fill(&k.Quit, def.Quit)
	return k
}

// Validate rejects a key bound to two actions or to a reserved key.
func (k Keymap) Validate() error {
	seen := make(map[string]string, len(ReservedKeys)+8)
	for _, r := range ReservedKeys {
		seen[r] = "reserved"
	}
	for _, b := range []struct{ action, key string }{
		{"up", k.Up},
		{"down", k.Down},
		{"create", k.Create},
		{"edit", k.Edit},
		{"delete", k.Delete},
		{"toggle_sync", k.ToggleSync},
		{"help", k.Help},
		{"quit", k.Quit},
	} {
		if b.key == "" {
			continue
		}
		if prev, ok := seen[b.key]; ok {
			return fmt.Errorf("%w: %q used by %s and %s", ErrKeyConflict, b.key, prev, b.action)
		}
		seen[b.key] = b.action
	}
	return nil
}
