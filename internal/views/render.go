package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Breadcrumbs   []string
	Body          string
	Overlay       string
	StatusLine    string
	StatusIsError bool
	Footer        string
	Width         int
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	breadcrumbStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const defaultPanelWidth = 72

func RenderApp(data AppData) string {
	width := panelWidth(data.Width)

	header := headerStyle.Render("taskmesh")
	if len(data.Breadcrumbs) > 0 {
		header += breadcrumbStyle.Render(" > " + strings.Join(data.Breadcrumbs, " > "))
	}

	lines := []string{header, panelStyle.Width(width).Render(data.Body)}
	if data.Overlay != "" {
		lines = append(lines, data.Overlay)
	}
	if data.StatusLine != "" {
		if data.StatusIsError {
			lines = append(lines, errorStyle.Render("error: "+data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func panelWidth(termWidth int) int {
	if termWidth <= 0 {
		return defaultPanelWidth
	}
	// border and padding take four columns
	if w := termWidth - 4; w < defaultPanelWidth {
		if w < 20 {
			return 20
		}
		return w
	}
	return defaultPanelWidth
}
