// Package calendar renders lab availability as an iCalendar (RFC 5545)
// document with one weekly-recurring event per selected cell.
package calendar

import (
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cosmelab/labgrid/internal/dateutil"
	"github.com/cosmelab/labgrid/internal/grid"
)

const (
	prodID       = "-//cosmelab//labgrid//EN"
	maxLineBytes = 75
	stampLayout  = "20060102T150405Z"
	localLayout  = "20060102T150405"
)

// uidNamespace scopes the deterministic event UIDs.
var uidNamespace = uuid.MustParse("6f1f7a8e-3c55-4c36-9a53-0c3f9f6d2b10")

// Options controls the exported calendar.
type Options struct {
	// Name is the calendar display name (X-WR-CALNAME). Optional.
	Name string
	// Summary is the title of every event.
	Summary string
	// Location is added to every event when set.
	Location string
	// Week is any day in the first week of the recurrence.
	Week time.Time
	// Count limits the recurrence to this many weeks; zero repeats forever.
	Count int
	// Now stamps DTSTAMP.
	Now time.Time
}

// Event is one weekly lab block.
type Event struct {
	UID     string
	Start   time.Time
	End     time.Time
	Summary string
}

// Events returns the events for cells in chronological order. Cells
// outside the grid are skipped.
func Events(cells []grid.Cell, opts Options) []Event {
	monday, _ := dateutil.WeekRange(opts.Week)
	summary := opts.Summary
	if summary == "" {
		summary = "Lab time"
	}

	sorted := append([]grid.Cell(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		return sorted[i].Slot < sorted[j].Slot
	})

	events := make([]Event, 0, len(sorted))
	for _, c := range sorted {
		if !c.Valid() {
			continue
		}
		day := monday.AddDate(0, 0, int(c.Day))
		start := time.Date(day.Year(), day.Month(), day.Day(), c.Slot.Hour(), 0, 0, 0, day.Location())
		events = append(events, Event{
			UID:     eventUID(summary, monday, c),
			Start:   start,
			End:     start.Add(time.Hour),
			Summary: summary,
		})
	}
	return events
}

// Write renders cells as a VCALENDAR to w. Zero cells produce a valid
// calendar with no events.
func Write(w io.Writer, cells []grid.Cell, opts Options) error {
	var buf bytes.Buffer
	line := func(s string) { writeFolded(&buf, s) }

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + prodID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")
	if opts.Name != "" {
		line("X-WR-CALNAME:" + EscapeText(opts.Name))
	}

	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, ev := range Events(cells, opts) {
		line("BEGIN:VEVENT")
		line("UID:" + ev.UID)
		line("DTSTAMP:" + stamp.UTC().Format(stampLayout))
		line("DTSTART:" + ev.Start.Format(localLayout))
		line("DTEND:" + ev.End.Format(localLayout))
		rrule := "RRULE:FREQ=WEEKLY"
		if opts.Count > 0 {
			rrule += ";COUNT=" + strconv.Itoa(opts.Count)
		}
		line(rrule)
		line("SUMMARY:" + EscapeText(ev.Summary))
		if opts.Location != "" {
			line("LOCATION:" + EscapeText(opts.Location))
		}
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	_, err := w.Write(buf.Bytes())
	return err
}

// Render is Write into a string.
func Render(cells []grid.Cell, opts Options) string {
	var sb strings.Builder
	_ = Write(&sb, cells, opts)
	return sb.String()
}

// EscapeText escapes a TEXT value: backslash, semicolon, comma and newlines.
func EscapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	return r.Replace(s)
}

// writeFolded writes one content line terminated by CRLF, folding it into
// continuation lines of at most 75 octets without splitting a UTF-8 rune.
func writeFolded(buf *bytes.Buffer, s string) {
	limit := maxLineBytes
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		buf.WriteString(s[:cut])
		buf.WriteString("\r\n ")
		s = s[cut:]
		// Continuation lines carry a leading space.
		limit = maxLineBytes - 1
	}
	buf.WriteString(s)
	buf.WriteString("\r\n")
}

func eventUID(summary string, monday time.Time, c grid.Cell) string {
	name := summary + "|" + monday.Format(dateutil.DateLayout) + "|" + c.Key()
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@labgrid"
}
