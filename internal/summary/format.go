package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmelab/labgrid/internal/dateutil"
)

// WeekLabel returns "January 6, 2025 - January 10, 2025" for the Monday to
// Friday of the week containing t.
func WeekLabel(t time.Time) string {
	monday, _ := dateutil.WeekRange(t)
	friday := monday.AddDate(0, 0, 4)
	const layout = "January 2, 2006"
	return monday.Format(layout) + " - " + friday.Format(layout)
}

// Text renders the summary as plain text for the clipboard.
func (s *ScheduleSummary) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lab schedule (%d submissions)\n", s.Rows)
	if !s.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s", s.FetchedAt.Local().Format("Jan 2 3:04 PM"))
		if s.Offline {
			b.WriteString(" (cached)")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nBest slots:\n")
	if len(s.Best) == 0 {
		b.WriteString("  No availability data yet\n")
	}
	for _, sc := range s.Best {
		names := s.Table.At(sc.Cell).Tooltip()
		fmt.Fprintf(&b, "  %-18s %d  %s\n", sc.Cell, sc.Count, names)
	}

	if len(s.Totals) > 0 {
		b.WriteString("\nStudents:\n")
		for _, st := range s.Totals {
			fmt.Fprintf(&b, "  %-20s %d\n", st.Name, st.Slots)
		}
	}

	if len(s.Windows) > 0 {
		b.WriteString("\nSession windows:\n")
		for _, w := range s.Windows {
			fmt.Fprintf(&b, "  %-26s %s\n", w, strings.Join(w.Together, ", "))
		}
	}

	if s.Insight != "" {
		b.WriteString("\nInsight:\n")
		b.WriteString(strings.TrimSpace(s.Insight))
		b.WriteString("\n")
	}

	if len(s.Sessions) > 0 {
		b.WriteString("\nSuggested sessions:\n")
		for _, sess := range s.Sessions {
			if len(sess.Cells) == 0 {
				continue
			}
			first, last := sess.Cells[0], sess.Cells[len(sess.Cells)-1]
			fmt.Fprintf(&b, "  %s %s-%s", first.Day, first.Slot, endLabel(last.Slot.Hour()))
			if sess.Reason != "" {
				fmt.Fprintf(&b, ": %s", sess.Reason)
			}
			b.WriteString("\n")
		}
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}

	return b.String()
}

// endLabel formats the end of the hour starting at hour (24h clock).
func endLabel(hour int) string {
	t := time.Date(2000, 1, 1, hour+1, 0, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
