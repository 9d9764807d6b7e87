package view

import "github.com/charmbracelet/lipgloss"

// FooterViewState holds the strings needed to render the footer section.
type FooterViewState struct {
	Width       int
	StatusText  string
	HelpText    string
	StatusStyle lipgloss.Style
	HelpStyle   lipgloss.Style
}

// RenderFooter renders the status line followed by the help line. An empty
// status keeps its line so the help line does not jump.
func RenderFooter(state FooterViewState) string {
	status := Line(state.Width, state.StatusStyle, state.StatusText)
	help := Line(state.Width, state.HelpStyle, state.HelpText)
	return status + "\n" + help
}
