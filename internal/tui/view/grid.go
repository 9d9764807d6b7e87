package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cosmelab/labgrid/internal/grid"
)

const (
	// TimeLabelWidth is the width of the slot label column.
	TimeLabelWidth = 9
	// DefaultCellWidth is the width of one grid cell.
	DefaultCellWidth = 7
)

// GridLayout places the 5×11 grid on screen. Top is the screen row of the
// first slot (the day header sits on the row above it).
type GridLayout struct {
	Top       int
	Left      int
	CellWidth int
	Gap       int
}

// NewGridLayout returns the default layout with the first slot at top.
func NewGridLayout(top int) GridLayout {
	return GridLayout{
		Top:       top,
		Left:      TimeLabelWidth,
		CellWidth: DefaultCellWidth,
		Gap:       1,
	}
}

// Width returns the rendered width of a grid row.
func (l GridLayout) Width() int {
	return l.Left + grid.NumDays*(l.CellWidth+l.Gap)
}

// CellAt resolves a screen coordinate to a grid cell. Points on the labels,
// on the gaps between cells or outside the grid resolve to no cell.
func (l GridLayout) CellAt(x, y int) (grid.Cell, bool) {
	row := y - l.Top
	if row < 0 || row >= grid.NumSlots {
		return grid.Cell{}, false
	}
	off := x - l.Left
	stride := l.CellWidth + l.Gap
	if off < 0 || stride <= 0 {
		return grid.Cell{}, false
	}
	day := off / stride
	if day >= grid.NumDays || off%stride >= l.CellWidth {
		return grid.Cell{}, false
	}
	return grid.Cell{Day: grid.Weekday(day), Slot: grid.TimeSlot(row)}, true
}

// CellRenderer returns the content and style of one cell.
type CellRenderer func(c grid.Cell) (string, lipgloss.Style)

// GridViewState holds what is needed to draw the grid.
type GridViewState struct {
	Layout      GridLayout
	HeaderStyle lipgloss.Style
	LabelStyle  lipgloss.Style
	GapStyle    lipgloss.Style
	Cell        CellRenderer
}

// RenderGrid draws the day header followed by one line per slot.
func RenderGrid(state GridViewState) string {
	l := state.Layout
	gap := state.GapStyle.Render(strings.Repeat(" ", l.Gap))

	var sb strings.Builder
	sb.WriteString(state.LabelStyle.Width(l.Left).Render(""))
	for _, day := range grid.Weekdays() {
		sb.WriteString(state.HeaderStyle.Width(l.CellWidth).Align(lipgloss.Center).Render(day.Short()))
		sb.WriteString(gap)
	}

	for _, slot := range grid.TimeSlots() {
		sb.WriteString("\n")
		sb.WriteString(state.LabelStyle.Width(l.Left).Render(fmt.Sprintf("%8s ", slot)))
		for _, day := range grid.Weekdays() {
			content, style := state.Cell(grid.Cell{Day: day, Slot: slot})
			sb.WriteString(style.Width(l.CellWidth).MaxWidth(l.CellWidth).Align(lipgloss.Center).Render(content))
			sb.WriteString(gap)
		}
	}
	return sb.String()
}
