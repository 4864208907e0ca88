package update

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/dql"
	"github.com/sandeepkv93/taskmesh/internal/keys"
	"github.com/sandeepkv93/taskmesh/internal/model"
)

const (
	OpCreate     = "create"
	OpEditTitle  = "edit"
	OpToggleDone = "toggle"
	OpDelete     = "delete"
)

func (s *TodoSession) HandleKey(msg tea.KeyMsg) (tea.Cmd, EventResult, error) {
	if s.closed.Load() {
		return nil, Ignored, ErrSessionClosed
	}
	if c := s.Cursor(); c >= 0 {
		s.cursor = c
	} else {
		s.cursor = 0
	}

	name, _ := s.keys.Lookup(msg)
	if s.mode == ModeNormal {
		return s.handleNormalKey(name)
	}
	return s.handleBufferKey(msg, name)
}

func (s *TodoSession) handleNormalKey(name keys.KeyName) (tea.Cmd, EventResult, error) {
	switch name {
	case keys.KeyCreate:
		s.openBuffer(ModeCreate, "", "")
		return nil, Consumed, nil
	case keys.KeyEdit:
		task, ok := s.Selected()
		if !ok {
			return nil, Consumed, ErrNoSelection
		}
		s.openBuffer(ModeEdit, task.ID, task.Title)
		return nil, Consumed, nil
	case keys.KeyDelete:
		task, ok := s.Selected()
		if !ok {
			return nil, Consumed, ErrNoSelection
		}
		return s.mutate(OpDelete, dql.StmtSoftDelete, model.Document{"id": task.ID}), Consumed, nil
	case keys.KeyUp:
		if s.cursor > 0 {
			s.cursor--
		}
		return nil, Consumed, nil
	case keys.KeyDown:
		if s.cursor < s.List.Len()-1 {
			s.cursor++
		}
		return nil, Consumed, nil
	case keys.KeyEnter, keys.KeySpace:
		task, ok := s.Selected()
		if !ok {
			return nil, Consumed, ErrNoSelection
		}
		done := s.nextDone(task)
		return s.mutate(OpToggleDone, dql.StmtSetDone, model.Document{"id": task.ID, "done": done}), Consumed, nil
	case keys.KeyToggleSync:
		return s.toggleSync()
	default:
		return nil, Ignored, nil
	}
}

func (s *TodoSession) handleBufferKey(msg tea.KeyMsg, name keys.KeyName) (tea.Cmd, EventResult, error) {
	switch name {
	case keys.KeyEscape:
		s.closeBuffer()
		return nil, Consumed, nil
	case keys.KeyBackspace:
		if len(s.buffer) == 0 {
			s.closeBuffer()
			return nil, Consumed, nil
		}
		s.buffer = s.buffer[:len(s.buffer)-1]
		return nil, Consumed, nil
	case keys.KeyEnter:
		return s.submitBuffer()
	}
	if text, ok := keys.Text(msg); ok {
		s.buffer = append(s.buffer, []rune(text)...)
		return nil, Consumed, nil
	}
	return nil, Ignored, nil
}

func (s *TodoSession) submitBuffer() (tea.Cmd, EventResult, error) {
	if len(s.buffer) == 0 {
		return nil, Ignored, nil
	}
	text := string(s.buffer)
	var cmd tea.Cmd
	switch s.mode {
	case ModeCreate:
		task := model.NewTask(text)
		cmd = s.mutate(OpCreate, dql.StmtInsertTask, model.Document{"task": task.Document()})
	case ModeEdit:
		cmd = s.mutate(OpEditTitle, dql.StmtSetTitle, model.Document{"id": s.editID, "title": text})
	}
	s.closeBuffer()
	return cmd, Consumed, nil
}

func (s *TodoSession) openBuffer(mode Mode, id, text string) {
	s.mode = mode
	s.editID = id
	s.buffer = []rune(text)
}

func (s *TodoSession) closeBuffer() {
	s.mode = ModeNormal
	s.editID = ""
	s.buffer = nil
}

func (s *TodoSession) toggleSync() (tea.Cmd, EventResult, error) {
	toggler, ok := s.store.(SyncToggler)
	if !ok {
		return nil, Ignored, nil
	}
	text := "sync started"
	if toggler.IsSyncActive() {
		toggler.StopSync()
		text = "sync stopped"
	} else {
		toggler.StartSync()
	}
	s.log.Info(text)
	return func() tea.Msg { return SetStatusMsg{Text: text} }, Consumed, nil
}

// mutate reserves the next slot in the session's mutation order and marks
// the mutation in flight now, on the UI goroutine. The returned command waits
// for its turn before executing.
func (s *TodoSession) mutate(op, statement string, params model.Document) tea.Cmd {
	wait, done := s.seq.reserve()
	finish := func() {}
	if s.tracker != nil {
		finish = s.tracker.Track()
	}
	profile := s.Profile.ID
	timeout := s.runtime.MutationTimeout
	s.log.Debug("mutation issued", "op", op)

	return func() tea.Msg {
		defer finish()
		defer close(done)
		if wait != nil {
			<-wait
		}
		if s.closed.Load() {
			return MutationResultMsg{Profile: profile, Op: op, Err: ErrSessionClosed}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := s.store.Execute(ctx, statement, params)
		if err != nil {
			s.log.Error("mutation failed", "op", op, "error", err)
			if op == OpToggleDone {
				id, _ := params["id"].(string)
				value, _ := params["done"].(bool)
				s.dropPendingDone(id, value)
			}
		} else {
			s.log.Debug("mutation applied", "op", op)
		}
		return MutationResultMsg{Profile: profile, Op: op, Err: err}
	}
}
