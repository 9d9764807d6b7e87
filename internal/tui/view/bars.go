package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// BarCells returns how many of width cells a bar at percent fills. Any
// non-zero percentage fills at least one cell.
func BarCells(percent float64, width int) int {
	if width <= 0 || percent <= 0 {
		return 0
	}
	n := int(math.Round(percent / 100 * float64(width)))
	return min(max(n, 1), width)
}

// StudentBarState holds one row of the per-student totals panel.
type StudentBarState struct {
	Name      string
	Slots     int
	Percent   float64
	NameWidth int
	BarWidth  int
	Color     lipgloss.Color
	Selected  bool
	Muted     lipgloss.Style
	Highlight lipgloss.Style
}

// RenderStudentBar renders "name ██████░░░░ 5 slots".
func RenderStudentBar(s StudentBarState) string {
	name := ansi.Truncate(s.Name, s.NameWidth, "…")
	name += strings.Repeat(" ", max(0, s.NameWidth-ansi.StringWidth(name)))
	if s.Selected {
		name = s.Highlight.Render(name)
	}

	filled := BarCells(s.Percent, s.BarWidth)
	bar := lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", filled)) +
		s.Muted.Render(strings.Repeat("░", s.BarWidth-filled))

	return fmt.Sprintf("%s %s %s", name, bar, s.Muted.Render(SlotLabel(s.Slots)))
}

// SlotLabel returns "1 slot" or "N slots".
func SlotLabel(n int) string {
	if n == 1 {
		return "1 slot"
	}
	return fmt.Sprintf("%d slots", n)
}
