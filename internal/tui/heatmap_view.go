package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/summary"
	"github.com/cosmelab/labgrid/internal/tui/view"
)

// heatmapHeaderLines is the title, the week line, the notice line and a
// blank line.
const heatmapHeaderLines = 4

const (
	maxNameWidth = 20
	minBarWidth  = 10
	maxBarWidth  = 40
)

func (m HeatmapModel) gridLayout() view.GridLayout {
	return view.NewGridLayout(heatmapHeaderLines + 1)
}

// View renders the heatmap.
func (m HeatmapModel) View() string {
	return view.Render(view.ViewState{
		Width:  m.width,
		Height: m.height,
		Sections: []string{
			m.renderHeader(),
			m.renderGrid(),
			m.renderDetails(),
			m.renderStudents(),
			m.renderInsight(),
			m.renderFooter(),
		},
		Bg: m.styles.Bg(),
	})
}

func (m HeatmapModel) renderHeader() string {
	title := m.styles.Title.Render("Lab schedule")

	week := "Week of " + summary.WeekLabel(m.opts.Now())
	if m.summary != nil && !m.summary.FetchedAt.IsZero() {
		week += " · Last updated " + m.summary.FetchedAt.Local().Format("3:04 PM")
	}

	return title + "\n" + m.styles.Subtitle.Render(week) + "\n" + m.renderNotice() + "\n"
}

// renderNotice is the loading / error / offline line.
func (m HeatmapModel) renderNotice() string {
	switch {
	case m.loading:
		return m.styles.Muted.Render("Loading schedule...")
	case m.err != nil:
		return m.styles.Error.Render(fmt.Sprintf("Error loading schedule: %v. Please try again later.", m.err))
	case m.summary != nil && m.summary.Offline:
		text := "Showing cached schedule"
		if m.summary.FetchErr != nil {
			text += fmt.Sprintf(" (fetch failed: %v)", m.summary.FetchErr)
		}
		return m.styles.Warning.Render(text)
	}
	return ""
}

func (m HeatmapModel) renderGrid() string {
	highlight := m.selectedName()
	highlightColor := lipgloss.Color("")
	if highlight != "" {
		highlightColor = m.styles.StudentColor(m.summary.Colors[highlight])
	}

	return view.RenderGrid(view.GridViewState{
		Layout:      m.gridLayout(),
		HeaderStyle: m.styles.DayHeader,
		LabelStyle:  m.styles.TimeLabel,
		GapStyle:    m.styles.Gap,
		Cell: func(c grid.Cell) (string, lipgloss.Style) {
			entry := heatmap.Entry{}
			if m.summary != nil {
				entry = m.summary.Table.At(c)
			}

			content := ""
			if entry.Count > 0 {
				content = strconv.Itoa(entry.Count)
			}
			style := m.styles.Band(m.opts.Banding.Band(entry.Count))
			if highlight != "" && containsName(entry.Names, highlight) {
				style = style.Background(highlightColor).Foreground(m.styles.Bg()).Bold(true)
			}
			if c == m.cursor {
				if content == "" {
					content = " "
				}
				content = "[" + content + "]"
				style = style.Bold(true)
			}
			return content, style
		},
	})
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// renderDetails shows the tooltip for the cursor cell and the band legend.
func (m HeatmapModel) renderDetails() string {
	entry := heatmap.Entry{}
	if m.summary != nil {
		entry = m.summary.Table.At(m.cursor)
	}

	label := m.styles.Highlight.Render(m.cursor.String())
	var tooltip string
	if entry.Count == 0 {
		tooltip = label + m.styles.Muted.Render(" · nobody available")
	} else {
		tooltip = label + m.styles.Tooltip.Render(fmt.Sprintf(" · %d available: %s", entry.Count, entry.Tooltip()))
	}

	return "\n" + tooltip + "\n" + m.renderLegend() + "\n"
}

func (m HeatmapModel) renderLegend() string {
	b := m.opts.Banding
	items := []struct {
		band  heatmap.Band
		label string
	}{
		{heatmap.BandNone, "0"},
		{heatmap.BandLow, rangeLabel(b.Low, b.Medium-1)},
		{heatmap.BandMedium, rangeLabel(b.Medium, b.High-1)},
		{heatmap.BandHigh, fmt.Sprintf("%d+", b.High)},
	}

	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = m.styles.Band(it.band).Render("  ") + m.styles.Muted.Render(" "+it.label)
	}
	return strings.Join(parts, m.styles.Muted.Render("   "))
}

func rangeLabel(lo, hi int) string {
	if lo >= hi {
		return strconv.Itoa(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

func (m HeatmapModel) renderStudents() string {
	title := m.styles.Title.Render("Students") + m.styles.Muted.Render(" · sorted by "+string(m.sort))
	if m.summary == nil || len(m.summary.Totals) == 0 {
		return title + "\n" + m.styles.Muted.Render("No availability data yet") + "\n"
	}

	nameWidth := 0
	for _, st := range m.summary.Totals {
		nameWidth = max(nameWidth, lipgloss.Width(st.Name))
	}
	nameWidth = min(nameWidth, maxNameWidth)
	barWidth := min(max(m.width-nameWidth-12, minBarWidth), maxBarWidth)

	lines := make([]string, 0, len(m.summary.Totals)+1)
	lines = append(lines, title)
	for i, st := range m.summary.Totals {
		lines = append(lines, view.RenderStudentBar(view.StudentBarState{
			Name:      st.Name,
			Slots:     st.Slots,
			Percent:   st.Percent,
			NameWidth: nameWidth,
			BarWidth:  barWidth,
			Color:     m.styles.StudentColor(m.summary.Colors[st.Name]),
			Selected:  i == m.student,
			Muted:     m.styles.Muted,
			Highlight: m.styles.Highlight,
		}))
	}
	return strings.Join(lines, "\n") + "\n"
}

// renderInsight shows the LLM insight, or the session windows when there is
// none.
func (m HeatmapModel) renderInsight() string {
	if m.summary == nil {
		return ""
	}
	if m.summary.Insight != "" {
		return m.styles.Title.Render("Insight") + "\n" + m.styles.Status.Render(strings.TrimSpace(m.summary.Insight)) + "\n"
	}
	if len(m.summary.Windows) == 0 {
		return ""
	}
	lines := []string{m.styles.Title.Render("Session windows")}
	for _, w := range m.summary.Windows {
		lines = append(lines, m.styles.Status.Render(w.String())+"  "+m.styles.Muted.Render(strings.Join(w.Together, ", ")))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m HeatmapModel) renderFooter() string {
	return view.RenderFooter(view.FooterViewState{
		Width:       m.width,
		StatusText:  m.status.text,
		HelpText:    "arrows move · tab student · e export student .ics · s sort · c shuffle/reset colors · r refresh · y copy · q quit",
		StatusStyle: m.status.style(m.styles),
		HelpStyle:   m.styles.Help,
	})
}
