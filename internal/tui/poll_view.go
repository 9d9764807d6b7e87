package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/tui/input"
	"github.com/cosmelab/labgrid/internal/tui/view"
)

// pollHeaderLines is the title, the subtitle and a blank line.
const pollHeaderLines = 3

const (
	markSelected = "✓"
	markCursor   = "[ ]"
	markBoth     = "[✓]"
)

// View renders the poll.
func (m PollModel) View() string {
	return view.Render(view.ViewState{
		Width:  m.width,
		Height: m.height,
		Sections: []string{
			m.renderHeader(),
			m.form.View() + "\n",
			m.renderGrid(),
			m.renderSelectionInfo(),
			m.renderFooter(),
		},
		Bg: m.styles.Bg(),
	})
}

func (m PollModel) renderHeader() string {
	title := m.styles.Title.Render("Lab availability")
	subtitle := m.styles.Subtitle.Render(fmt.Sprintf(
		"Select every hour you can be in the lab. Try to include a block of %d consecutive hours.",
		m.opts.BlockLength))
	return title + "\n" + subtitle + "\n"
}

func (m PollModel) renderGrid() string {
	gridFocused := m.form.Focused() == input.NoFocus
	return view.RenderGrid(view.GridViewState{
		Layout:      m.gridLayout(),
		HeaderStyle: m.styles.DayHeader,
		LabelStyle:  m.styles.TimeLabel,
		GapStyle:    m.styles.Gap,
		Cell: func(c grid.Cell) (string, lipgloss.Style) {
			selected := m.selection.IsSelected(c)
			cursor := gridFocused && c == m.cursor
			switch {
			case selected && cursor:
				return markBoth, m.styles.CursorSelected
			case selected:
				return markSelected, m.styles.CellSelected
			case cursor:
				return markCursor, m.styles.Cursor
			default:
				return "", m.styles.Cell
			}
		},
	})
}

// renderSelectionInfo always renders three lines: the count, the block
// warning and the resubmission notice.
func (m PollModel) renderSelectionInfo() string {
	n := m.selState.Size
	unit := "hours"
	if n == 1 {
		unit = "hour"
	}
	count := m.styles.Status.Render(fmt.Sprintf("%d %s selected", n, unit))

	warning := ""
	if m.selState.ShowWarning() {
		warning = m.styles.Warning.Render(fmt.Sprintf(
			"No block of %d consecutive hours on any day yet.", m.opts.BlockLength))
	}

	notice := ""
	if m.notice != "" {
		notice = m.styles.Warning.Render(m.notice)
	}
	return "\n" + count + "\n" + warning + "\n" + notice
}

func (m PollModel) renderFooter() string {
	return view.RenderFooter(view.FooterViewState{
		Width:       m.width,
		StatusText:  m.status.text,
		HelpText:    m.helpText(),
		StatusStyle: m.status.style(m.styles),
		HelpStyle:   m.styles.Help,
	})
}

func (m PollModel) helpText() string {
	switch {
	case m.submitted:
		return "y copy .ics · q quit"
	case m.form.Focused() != input.NoFocus:
		return "tab next · shift+tab back · esc grid · ctrl+s submit · ctrl+c quit"
	default:
		return "arrows move · space toggle · shift+arrows paint · c clear · enter submit · y copy .ics · tab form · q quit"
	}
}
