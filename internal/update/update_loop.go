package update

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/input"
	"github.com/sandeepkv93/taskmesh/internal/keys"
	"github.com/sandeepkv93/taskmesh/internal/logger"
	"github.com/sandeepkv93/taskmesh/internal/shutdown"
)

func loopLog() *slog.Logger {
	return logger.ComponentLogger("update")
}

func (m Model) Init() tea.Cmd {
	if m.Merger != nil {
		return m.Merger.Next()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case MutationResultMsg:
		return m.onMutationResult(typed)
	case SetStatusMsg:
		cmd := m.setStatus(typed.Text, typed.IsError)
		return m, cmd
	case ClearStatusMsg:
		if typed.Seq == m.statusSeq {
			m.Status = StatusBar{}
		}
		return m, nil
	}

	in, ok := input.FromMsg(msg)
	if !ok {
		return m, nil
	}
	var rearm tea.Cmd
	if input.FromMerger(msg) && m.Merger != nil {
		rearm = m.Merger.Next()
	}

	next, cmd := m.handleInput(in)
	switch {
	case next.Quitting, rearm == nil:
		return next, cmd
	case cmd == nil:
		return next, rearm
	default:
		return next, tea.Batch(cmd, rearm)
	}
}

func (m Model) handleInput(in input.Input) (Model, tea.Cmd) {
	switch typed := in.(type) {
	case input.FrameTick:
		m.Frames++
		m.LastResult = Consumed
		return m, nil
	case input.ActionInput:
		return m.handleAction(typed.Action)
	case input.Terminal:
		if typed.Err != nil {
			loopLog().Error("terminal input error", "error", typed.Err)
			return m.fail(fmt.Errorf("terminal: %w", typed.Err))
		}
		switch msg := typed.Msg.(type) {
		case tea.KeyMsg:
			return m.handleKey(msg)
		case tea.WindowSizeMsg:
			m.Width, m.Height = msg.Width, msg.Height
			m.LastResult = Consumed
			return m, nil
		}
	}
	m.LastResult = Ignored
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	name, _ := m.keys.Lookup(msg)
	editing := m.editing()

	switch {
	case name == keys.KeyForceQuit, name == keys.KeyQuit && !editing:
		return m.quit()
	case name == keys.KeyHelp && !editing:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.prepareHelp()
		}
		m.LastResult = Consumed
		return m, nil
	case name == keys.KeyEscape && m.HelpVisible:
		m.HelpVisible = false
		m.LastResult = Consumed
		return m, nil
	}

	switch m.Focus {
	case FocusProfiles:
		return m.handleProfilesKey(name)
	case FocusTodoList:
		return m.handleTodoKey(msg, name)
	}
	m.LastResult = Ignored
	return m, nil
}

func (m Model) handleProfilesKey(name keys.KeyName) (Model, tea.Cmd) {
	switch name {
	case keys.KeyUp:
		m.Profiles.MoveUp()
	case keys.KeyDown:
		m.Profiles.MoveDown()
	case keys.KeyEnter:
		profile, ok := m.Profiles.Selected()
		if !ok {
			m.LastResult = Ignored
			return m, nil
		}
		return m.submit(input.EnterProfile{Profile: profile})
	default:
		m.LastResult = Ignored
		return m, nil
	}
	m.LastResult = Consumed
	return m, nil
}

func (m Model) handleTodoKey(msg tea.KeyMsg, name keys.KeyName) (Model, tea.Cmd) {
	session, ok := m.ActiveSession()
	if !ok {
		loopLog().Warn("task list focused without an active session")
		m.Focus = FocusProfiles
		m.LastResult = Ignored
		return m, nil
	}
	if name == keys.KeyEscape && !session.Editing() {
		return m.submit(input.ExitProfile{})
	}

	cmd, result, err := session.HandleKey(msg)
	m.LastResult = result
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			statusCmd := m.setStatus(err.Error(), false)
			return m, statusCmd
		}
		next, statusCmd := m.fail(err)
		next.LastResult = result
		return next, statusCmd
	}
	return m, cmd
}

func (m Model) handleAction(action input.Action) (Model, tea.Cmd) {
	loopLog().Debug("action", "action", action.String())
	switch a := action.(type) {
	case input.EnterProfile:
		return m.enterProfile(a)
	case input.ExitProfile:
		m.Focus = FocusProfiles
		m.Active = ""
		m.LastResult = Consumed
		return m, nil
	}
	m.LastResult = Ignored
	return m, nil
}

func (m Model) enterProfile(a input.EnterProfile) (Model, tea.Cmd) {
	id := a.Profile.ID
	if _, ok := m.Registry.Get(id); !ok {
		session, err := m.openSession(a)
		if err != nil {
			loopLog().Error("enter profile failed", "profile", id, "error", err)
			return m.fail(err)
		}
		m.Registry.Put(session)
	}
	m.Active = id
	m.Focus = FocusTodoList
	m.LastResult = Consumed
	return m, nil
}

func (m Model) openSession(a input.EnterProfile) (*TodoSession, error) {
	if m.connect == nil {
		return nil, ErrNoConnector
	}
	store, err := m.connect(a.Profile)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.Profile.ID, err)
	}
	var tracker Tracker
	if m.Shutdown != nil {
		tracker = m.Shutdown
	}
	return OpenSession(a.Profile, store, tracker, m.runtime)
}

func (m Model) submit(action input.Action) (Model, tea.Cmd) {
	if m.Merger == nil {
		return m.fail(ErrNoMerger)
	}
	if err := m.Merger.Submit(action); err != nil {
		loopLog().Error("submit action failed", "action", action.String(), "error", err)
		return m.fail(fmt.Errorf("%s: %w", action, err))
	}
	m.LastResult = Consumed
	return m, nil
}

func (m Model) onMutationResult(msg MutationResultMsg) (Model, tea.Cmd) {
	if msg.Err == nil {
		return m, nil
	}
	return m.fail(fmt.Errorf("%s failed: %w", msg.Op, msg.Err))
}

func (m Model) quit() (Model, tea.Cmd) {
	if m.Shutdown != nil {
		m.Shutdown.Trigger(shutdown.ErrUserQuit)
	}
	m.Quitting = true
	m.LastResult = Consumed
	return m, tea.Quit
}

func (m Model) fail(err error) (Model, tea.Cmd) {
	m.LastError = err
	m.LastResult = Consumed
	cmd := m.setStatus(err.Error(), true)
	return m, cmd
}

func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.Status = StatusBar{Text: text, IsError: isError}
	seq := m.statusSeq
	return tea.Tick(m.runtime.StatusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

func (m Model) editing() bool {
	if m.Focus != FocusTodoList {
		return false
	}
	session, ok := m.ActiveSession()
	return ok && session.Editing()
}
