// Package view provides rendering helpers for the TUI.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ViewState contains the sections of a screen, top to bottom.
type ViewState struct {
	Width            int
	Height           int
	Sections         []string
	Bg               lipgloss.Color
	EmptyPlaceholder string
}

// Render composes the final view output.
func Render(state ViewState) string {
	if state.Width == 0 || state.Height == 0 {
		if state.EmptyPlaceholder != "" {
			return state.EmptyPlaceholder
		}
		return "Loading..."
	}

	parts := make([]string, 0, len(state.Sections))
	for _, s := range state.Sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return PadLinesWithBackground(strings.Join(parts, "\n"), state.Width, state.Height, state.Bg)
}
