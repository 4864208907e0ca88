package update

import (
	"github.com/sandeepkv93/taskmesh/internal/views"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	crumbs := []string{"Profiles"}
	body := m.renderProfilesPanel()
	overlay := ""

	if m.Focus == FocusTodoList {
		if session, ok := m.ActiveSession(); ok {
			crumbs = append(crumbs, session.Profile.Label())
			body = m.renderTasksPanel(session)
			overlay = renderEditPrompt(session, m.Width)
		}
	}
	if help := m.renderHelpIfVisible(); help != "" {
		overlay = help
	}

	return views.RenderApp(views.AppData{
		Breadcrumbs:   crumbs,
		Body:          body,
		Overlay:       overlay,
		StatusLine:    m.Status.Text,
		StatusIsError: m.Status.IsError,
		Footer:        m.footer(),
		Width:         m.Width,
	})
}

func (m Model) renderProfilesPanel() string {
	rows := make([]views.ProfileRow, 0, len(m.Profiles.Profiles))
	for _, p := range m.Profiles.Profiles {
		_, entered := m.Registry.Get(p.ID)
		rows = append(rows, views.ProfileRow{Label: p.Label(), ID: p.ID, Entered: entered})
	}
	return views.RenderProfilesPanel(views.ProfilesPanelData{Rows: rows, Cursor: m.Profiles.Cursor})
}

func (m Model) renderTasksPanel(s *TodoSession) string {
	tasks := s.List.Snapshot()
	rows := make([]views.TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, views.TaskRow{ID: t.ID, Title: t.Title, Done: t.Done})
	}
	cursor := -1
	if len(tasks) > 0 {
		cursor = min(max(s.cursor, 0), len(tasks)-1)
	}
	return views.RenderTasksPanel(views.TasksPanelData{
		Profile:    s.Profile.Label(),
		Rows:       rows,
		Cursor:     cursor,
		Loaded:     s.List.Version() > 0,
		SyncActive: s.SyncActive(),
		Frame:      m.Frames,
		Width:      m.Width,
	})
}

func renderEditPrompt(s *TodoSession, width int) string {
	switch s.Mode() {
	case ModeCreate:
		return views.RenderEditPrompt(views.EditPromptData{Title: "New Task", Text: s.Buffer(), Width: width / 2})
	case ModeEdit:
		return views.RenderEditPrompt(views.EditPromptData{Title: "Edit Task", Text: s.Buffer(), Width: width / 2})
	default:
		return ""
	}
}
