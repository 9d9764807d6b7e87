package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/lablog"
	"github.com/cosmelab/labgrid/internal/summary"
)

// ruleWidth is the width of section separators.
const ruleWidth = 60

// cellWidth is the column width of one weekday in the text grid.
const cellWidth = 6

func rule() string {
	return strings.Repeat("─", ruleWidth)
}

// PrintSchedule prints the colored heatmap, best slots, per-student totals
// and any insight for s.
func PrintSchedule(w io.Writer, s *summary.ScheduleSummary, banding heatmap.Banding, now time.Time) {
	header := fmt.Sprintf("LAB SCHEDULE: week of %s", summary.WeekLabel(now))
	fmt.Fprintf(w, "\n  %s\n", formatHeader(header))
	if !s.FetchedAt.IsZero() {
		fmt.Fprintf(w, "  %s\n", formatMuted(fmt.Sprintf("%d submissions · last updated %s",
			s.Rows, s.FetchedAt.Local().Format("Jan 2 3:04 PM"))))
	}
	if s.Offline {
		msg := "Showing cached schedule"
		if s.FetchErr != nil {
			msg += fmt.Sprintf(" (fetch failed: %v)", s.FetchErr)
		}
		fmt.Fprintf(w, "  %s\n", formatWarn(msg))
	}
	fmt.Fprintln(w, rule())

	PrintGrid(w, s.Table, banding)
	fmt.Fprintln(w, rule())

	fmt.Fprintf(w, "  %s\n", formatHeader("Best slots"))
	if len(s.Best) == 0 {
		fmt.Fprintf(w, "  %s\n", formatMuted("No availability data yet"))
	}
	for _, b := range s.Best {
		fmt.Fprintf(w, "  %-18s %s  %s\n", b.Cell.String(),
			formatBand(strconv.Itoa(b.Count), banding.Band(b.Count)),
			formatMuted(s.Table.At(b.Cell).Tooltip()))
	}

	if len(s.Totals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", formatHeader("Students"))
		for _, st := range s.Totals {
			fmt.Fprintf(w, "  %-20s %s %s\n", truncate(st.Name, 20), HoursBar(st.Percent, 20), formatStats(slotLabel(st.Slots)))
		}
	}

	if len(s.Windows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", formatHeader("SESSION WINDOWS"))
		for _, win := range s.Windows {
			fmt.Fprintf(w, "  %-26s %s\n", win.String(), formatMuted(strings.Join(win.Together, ", ")))
		}
	}

	if s.Insight != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", formatHeader("INSIGHT"))
		fmt.Fprintln(w, rule())
		PrintInsightWrapped(w, s.Insight, ruleWidth-2)
	}

	if len(s.Sessions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", formatHeader("SUGGESTED SESSIONS"))
		for _, sess := range s.Sessions {
			if len(sess.Cells) == 0 {
				continue
			}
			first, last := sess.Cells[0], sess.Cells[len(sess.Cells)-1]
			span := fmt.Sprintf("%s %s-%s", first.Day, first.Slot, endOfSlot(last.Slot))
			if sess.Reason == "" {
				fmt.Fprintf(w, "    • %s\n", formatStats(span))
				continue
			}
			fmt.Fprintf(w, "    • %s %s\n", formatStats(span), formatMuted(sess.Reason))
		}
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "  %s\n", formatWarn("warning: "+warn))
	}
	fmt.Fprintln(w)
}

// PrintGrid prints the availability counts as a weekday × hour table,
// each count colored by its density band.
func PrintGrid(w io.Writer, t *heatmap.Table, banding heatmap.Banding) {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", 10))
	for _, d := range grid.Weekdays() {
		fmt.Fprintf(&b, "%-*s", cellWidth, d.Short())
	}
	fmt.Fprintln(w, formatHeader(strings.TrimRight(b.String(), " ")))

	for _, slot := range grid.TimeSlots() {
		b.Reset()
		fmt.Fprintf(&b, "%8s  ", slot.String())
		for _, d := range grid.Weekdays() {
			n := t.At(grid.Cell{Day: d, Slot: slot}).Count
			text := "·"
			if n > 0 {
				text = strconv.Itoa(n)
			}
			// Pad before coloring so escape codes do not break alignment.
			b.WriteString(formatBand(fmt.Sprintf("%-*s", cellWidth, text), banding.Band(n)))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// PrintDashboard prints a student's lab log statistics.
func PrintDashboard(w io.Writer, email string, stats lablog.Stats) {
	title := "MY LAB LOG"
	if email != "" {
		title += ": " + email
	}
	fmt.Fprintf(w, "\n  %s\n", formatHeader(title))
	fmt.Fprintln(w, rule())

	fmt.Fprintf(w, "  Total hours: %s  |  Sessions: %s  |  Average: %s  |  Last visit: %s\n",
		formatStats(lablog.FormatDuration(stats.TotalHours)),
		formatStats(strconv.Itoa(stats.TotalSessions)),
		formatStats(lablog.FormatDuration(stats.AverageHours)),
		stats.LastVisitLabel())

	if len(stats.Projects) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", formatHeader("Projects"))
		top := stats.Projects[0].Hours
		for _, p := range stats.Projects {
			pct := 0.0
			if top > 0 {
				pct = p.Hours / top * 100
			}
			fmt.Fprintf(w, "  %-20s %s %s\n", truncate(p.Project, 20), HoursBar(pct, 20), lablog.FormatDuration(p.Hours))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", formatHeader("Recent visits"))
	if len(stats.Recent) == 0 {
		fmt.Fprintf(w, "  %s\n", formatMuted("No logs yet"))
	}
	descWidth := max(termWidth()-52, 20)
	for _, e := range stats.Recent {
		fmt.Fprintf(w, "  %-10s  %s-%s  %-7s  %-18s  %s\n",
			e.Date, e.TimeIn, e.TimeOut,
			lablog.FormatDuration(float64(e.HoursWorked)),
			truncate(e.Project, 18),
			formatMuted(truncate(e.Accomplishments, descWidth)))
	}
	fmt.Fprintln(w)
}

// HoursBar creates an ASCII bar filled to pct percent.
func HoursBar(pct float64, width int) string {
	pct = min(max(pct, 0), 100)
	filled := int(pct/100*float64(width) + 0.5)
	return formatStats(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

func slotLabel(n int) string {
	if n == 1 {
		return "1 slot"
	}
	return fmt.Sprintf("%d slots", n)
}

// endOfSlot formats the time the hour slot s ends.
func endOfSlot(s grid.TimeSlot) string {
	return time.Date(2000, 1, 1, s.Hour()+1, 0, 0, 0, time.UTC).Format("3:04 PM")
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// PrintInsightWrapped formats and prints insight text preserving structure.
func PrintInsightWrapped(w io.Writer, text string, width int) {
	// Strip markdown code blocks
	text = stripMarkdownCodeBlocks(text)

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			fmt.Fprintln(w)
			continue
		}

		prefix, content, contentWidth, isHeader := parseInsightLine(trimmed, width)
		if isHeader {
			fmt.Fprintln(w)
			fmt.Fprintln(w, formatHeader("  "+content))
			continue
		}

		wrapAndPrint(w, content, prefix, contentWidth)
	}
}

// parseInsightLine parses a line and returns formatting info.
// Returns: prefix, content, contentWidth, isHeader
func parseInsightLine(trimmed string, width int) (prefix, content string, contentWidth int, isHeader bool) {
	prefix = "  "
	content = trimmed
	contentWidth = width - 2

	switch {
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		prefix = "    • "
		content = strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
		contentWidth = width - 6

	case strings.HasPrefix(trimmed, "#"):
		content = strings.TrimLeft(trimmed, "# ")
		isHeader = true

	case strings.HasPrefix(trimmed, ">"):
		content = strings.TrimPrefix(trimmed, "> ")
		prefix = "  │ "
		contentWidth = width - 4

	case isNumberedItem(trimmed):
		idx := strings.Index(trimmed, ".")
		prefix = "  " + trimmed[:idx+1] + " "
		content = strings.TrimSpace(trimmed[idx+1:])
		contentWidth = width - len(prefix)
	}

	return prefix, content, contentWidth, isHeader
}

// isNumberedItem checks if a line starts with a number followed by a period.
func isNumberedItem(s string) bool {
	if len(s) < 3 {
		return false
	}
	if s[0] < '1' || s[0] > '9' {
		return false
	}
	if s[1] == '.' {
		return true
	}
	if s[1] >= '0' && s[1] <= '9' && len(s) > 3 && s[2] == '.' {
		return true
	}
	return false
}

// wrapAndPrint wraps text to width and prints with the given prefix.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	line := ""
	continuation := strings.Repeat(" ", len([]rune(prefix)))
	first := true

	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			fmt.Fprintln(w, formatInsight(pick(first, prefix, continuation)+line))
			first = false
			line = word
		}
	}
	fmt.Fprintln(w, formatInsight(pick(first, prefix, continuation)+line))
}

func pick(first bool, prefix, continuation string) string {
	if first {
		return prefix
	}
	return continuation
}

// stripMarkdownCodeBlocks removes ```...``` fences from text.
func stripMarkdownCodeBlocks(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
