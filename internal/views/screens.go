package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
)

type ProfileRow struct {
	Label   string
	ID      string
	Entered bool
}

type ProfilesPanelData struct {
	Rows   []ProfileRow
	Cursor int
}

type TaskRow struct {
	ID    string
	Title string
	Done  bool
}

type TasksPanelData struct {
	Profile    string
	Rows       []TaskRow
	Cursor     int
	Loaded     bool
	SyncActive bool
	Frame      uint64
	Width      int
}

type EditPromptData struct {
	Title string
	Text  string
	Width int
}

type HelpPanelData struct {
	Markdown string
	Bindings []key.Binding
}

func RenderProfilesPanel(data ProfilesPanelData) string {
	if len(data.Rows) == 0 {
		return "profiles:\n(no profiles configured)"
	}
	rows := make([]table.Row, 0, len(data.Rows))
	for _, p := range data.Rows {
		mark := ""
		if p.Entered {
			mark = "●"
		}
		rows = append(rows, table.Row{mark, p.Label, p.ID})
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 2},
			{Title: "Name", Width: 24},
			{Title: "AppID", Width: 36},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)
	t.SetCursor(data.Cursor)
	return "profiles:\n" + t.View()
}

// RenderTasksPanel draws the task table. Cursor is -1 when nothing is
// selected.
func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %s | %s\n", data.Profile, syncLabel(data.SyncActive, data.Frame)))
	switch {
	case !data.Loaded:
		b.WriteString("loading...")
		return b.String()
	case len(data.Rows) == 0:
		b.WriteString("(no tasks yet, press c to create one)")
		return b.String()
	}

	titleWidth := 50
	if data.Width > 0 && data.Width-16 > 20 {
		titleWidth = data.Width - 16
	}
	rows := make([]table.Row, 0, len(data.Rows))
	for _, task := range data.Rows {
		done := "[ ]"
		if task.Done {
			done = "[x]"
		}
		rows = append(rows, table.Row{done, task.Title})
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Done", Width: 5},
			{Title: "Title", Width: titleWidth},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows), 20)+1),
	)
	if data.Cursor >= 0 {
		t.SetCursor(data.Cursor)
	}
	b.WriteString(t.View())
	return b.String()
}

func RenderEditPrompt(data EditPromptData) string {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "task title"
	in.CharLimit = 0
	if data.Width > 0 {
		in.Width = data.Width
	}
	in.SetValue(data.Text)
	in.Focus()
	in.CursorEnd()
	return promptStyle.Render(data.Title + "\n" + in.View())
}

func RenderHelpPanel(data HelpPanelData) string {
	return panelStyle.Render(strings.TrimSpace(data.Markdown + "\n\n" + help.New().ShortHelpView(data.Bindings)))
}

func syncLabel(active bool, frame uint64) string {
	if !active {
		return "Sync Inactive"
	}
	frames := spinner.Dot.Frames
	return "Sync Active " + frames[frame%uint64(len(frames))]
}
