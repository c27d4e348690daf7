package tui

import (
	"fmt"
	"strings"

	"photoedit/internal/editor"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	resultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("86"))
	disabledStyle = buttonStyle.Foreground(lipgloss.Color("240"))
	selectedStyle = buttonStyle.Background(lipgloss.Color("7")).Foreground(lipgloss.Color("0"))
	panelStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func (m Model) View() string {
	s := m.editor.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Photo Editor"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("Upload an image and describe how you want to edit it"))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.imagePanel(s)))
	b.WriteString("\n")

	b.WriteString("Editing instruction\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")

	b.WriteString(m.submitButton(s))
	b.WriteString("\n")

	if s.Error != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(s.Error))
		b.WriteString("\n")
	}

	if s.HasResult() {
		b.WriteString("\n")
		b.WriteString(m.resultPanel(s))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("tab focus • enter select • ctrl+s edit • d download • esc quit"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("Backend: " + m.backend))
	return b.String()
}

func (m Model) imagePanel(s editor.Snapshot) string {
	lines := []string{m.path.View()}
	if s.HasImage() {
		lines = append(lines, fmt.Sprintf("%s (%s, %d KB)", s.ImageName, s.ImageType, (s.ImageSize+1023)/1024))
	} else {
		lines = append(lines, subtleStyle.Render("No image selected. Type a path and press enter."))
	}
	return strings.Join(lines, "\n")
}

func (m Model) submitButton(s editor.Snapshot) string {
	if s.Busy() {
		return disabledStyle.Render(m.spinner.View() + " Processing...")
	}

	label := "[ Edit Image ]"
	switch {
	case m.focus == focusSubmit:
		return selectedStyle.Render(label)
	case !s.CanSubmit():
		return disabledStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

func (m Model) resultPanel(s editor.Snapshot) string {
	desc := "edited image"
	if info, err := editor.DescribeResult(s.Result); err == nil {
		desc = info.String()
	}

	button := buttonStyle.Render("[ Download Image ]")
	if m.focus == focusDownload {
		button = selectedStyle.Render("[ Download Image ]")
	}

	return resultStyle.Render("Result: "+desc) + "\n" + button + " " + subtleStyle.Render("saves "+editor.DownloadFilename)
}
