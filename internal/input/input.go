// Package input defines the single event stream the root controller consumes
// and the merger that feeds frame ticks and navigation actions into it.
package input

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/config"
)

// Input is one item of the merged stream.
type Input interface {
	isInput()
}

// Terminal wraps a terminal event, or an I/O error from the terminal source.
type Terminal struct {
	Msg tea.Msg
	Err error
}

// FrameTick asks for a redraw even when nothing else happened.
type FrameTick struct {
	At time.Time
}

// ActionInput carries a navigation action submitted by a handler.
type ActionInput struct {
	Action Action
}

func (Terminal) isInput()    {}
func (FrameTick) isInput()   {}
func (ActionInput) isInput() {}

// Action is an internally generated navigation request.
type Action interface {
	isAction()
	String() string
}

type EnterProfile struct {
	Profile config.Profile
}

type ExitProfile struct{}

func (EnterProfile) isAction() {}
func (ExitProfile) isAction()  {}

func (a EnterProfile) String() string { return "enter-profile:" + a.Profile.ID }
func (ExitProfile) String() string    { return "exit-profile" }

// TerminalErrorMsg reports a failure reading terminal input.
type TerminalErrorMsg struct {
	Err error
}

// mergedMsg is what Merger.Next resolves to inside the program loop.
type mergedMsg struct {
	input Input
}

// FromMsg normalizes a program message into an Input. Terminal-originated
// messages are wrapped; merger messages are unwrapped. Anything else (command
// results and other application messages) is not part of the stream.
func FromMsg(msg tea.Msg) (Input, bool) {
	switch typed := msg.(type) {
	case mergedMsg:
		return typed.input, true
	case tea.KeyMsg, tea.MouseMsg, tea.WindowSizeMsg, tea.FocusMsg, tea.BlurMsg:
		return Terminal{Msg: msg}, true
	case TerminalErrorMsg:
		return Terminal{Err: typed.Err}, true
	default:
		return nil, false
	}
}

// FromMerger reports whether msg was produced by a merger's Next command, so
// that reading can be re-armed.
func FromMerger(msg tea.Msg) bool {
	_, ok := msg.(mergedMsg)
	return ok
}
