package update

import (
	"slices"

	"github.com/sandeepkv93/taskmesh/internal/config"
)

type ProfilesState struct {
	Profiles []config.Profile
	Cursor   int
}

func NewProfilesState(profiles []config.Profile) ProfilesState {
	return ProfilesState{Profiles: slices.Clone(profiles)}
}

func (p *ProfilesState) MoveUp() {
	if p.Cursor > 0 {
		p.Cursor--
	}
	p.clamp()
}

func (p *ProfilesState) MoveDown() {
	if p.Cursor < len(p.Profiles)-1 {
		p.Cursor++
	}
	p.clamp()
}

func (p ProfilesState) Selected() (config.Profile, bool) {
	if p.Cursor < 0 || p.Cursor >= len(p.Profiles) {
		return config.Profile{}, false
	}
	return p.Profiles[p.Cursor], true
}

func (p *ProfilesState) clamp() {
	if len(p.Profiles) == 0 || p.Cursor < 0 {
		p.Cursor = 0
		return
	}
	if p.Cursor >= len(p.Profiles) {
		p.Cursor = len(p.Profiles) - 1
	}
}
