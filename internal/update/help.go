package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/keys"
	"github.com/sandeepkv93/taskmesh/internal/views"
)

func helpMarkdown(km config.Keymap) string {
	return fmt.Sprintf(`# taskmesh

Pick a profile and press **enter** to open its task list. Each profile keeps
its own live session, so switching back is instant.

| Key | Tasks |
|---|---|
| %s | create a task |
| %s | edit the selected title |
| %s | delete the selected task |
| enter / space | toggle done |
| %s | toggle sync |
| esc | back to profiles |

While typing a title, **enter** saves, **esc** cancels and **backspace** on
an empty title cancels too.
`, km.Create, km.Edit, km.Delete, km.ToggleSync)
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Markdown: m.helpText(),
		Bindings: m.contextBindings(),
	})
}

func (m *Model) prepareHelp() {
	if m.helpRender == "" {
		m.helpRender = views.RenderMarkdown(helpMarkdown(m.runtime.Keys))
	}
}

func (m Model) helpText() string {
	if m.helpRender == "" {
		return views.RenderMarkdown(helpMarkdown(m.runtime.Keys))
	}
	return m.helpRender
}

func (m Model) contextBindings() []key.Binding {
	if m.editing() {
		return keys.EditBindings()
	}
	if m.Focus == FocusTodoList {
		return m.keys.TaskBindings()
	}
	return m.keys.ProfileBindings()
}

func (m Model) footer() string {
	return m.helpModel.ShortHelpView(m.contextBindings())
}
