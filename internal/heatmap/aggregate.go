// Package heatmap rebuilds per-cell occupancy from submitted availability
// rows and derives the density bands, per-student totals and colors shown
// on the schedule heatmap.
package heatmap

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/cosmelab/labgrid/internal/grid"
)

// UnknownName is used when a row carries no submitter name.
const UnknownName = "Unknown"

// Row is one availability row as returned by the spreadsheet endpoint.
type Row struct {
	Day         string
	Time        string
	StudentName string
	FirstName   string
}

// rowWire tolerates any JSON type per field; non-strings are treated as absent.
type rowWire struct {
	Day         any `json:"day"`
	Time        any `json:"time"`
	StudentName any `json:"student_name"`
	FirstName   any `json:"first_name"`
}

// UnmarshalJSON decodes a row leniently so a malformed field degrades to
// empty instead of failing the whole payload.
func (r *Row) UnmarshalJSON(data []byte) error {
	var w rowWire
	if err := json.Unmarshal(data, &w); err != nil {
		// Not an object at all: keep the zero row, it will be dropped.
		*r = Row{}
		return nil
	}
	*r = Row{
		Day:         asString(w.Day),
		Time:        asString(w.Time),
		StudentName: asString(w.StudentName),
		FirstName:   asString(w.FirstName),
	}
	return nil
}

// MarshalJSON writes the row in the endpoint's field names.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"day":          r.Day,
		"time":         r.Time,
		"student_name": r.StudentName,
		"first_name":   r.FirstName,
	})
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// Name returns the submitter name: student_name, then first_name, then
// UnknownName.
func (r Row) Name() string {
	if r.StudentName != "" {
		return r.StudentName
	}
	if r.FirstName != "" {
		return r.FirstName
	}
	return UnknownName
}

// Entry is the occupancy of one cell.
type Entry struct {
	Count int
	Names []string
}

// Tooltip returns the submitter names joined for display.
func (e Entry) Tooltip() string {
	return strings.Join(e.Names, ", ")
}

// Table is the occupancy of the whole grid, rebuilt from scratch per fetch.
type Table struct {
	cells   [grid.NumDays][grid.NumSlots]Entry
	Dropped int // Rows whose day/time fell outside the grid
}

// NewTable returns a table with every cell at {0, []}.
func NewTable() *Table {
	t := &Table{}
	for d := range t.cells {
		for s := range t.cells[d] {
			t.cells[d][s].Names = []string{}
		}
	}
	return t
}

// At returns the entry for c. Cells outside the grid return a zero entry.
func (t *Table) At(c grid.Cell) Entry {
	if !c.Valid() {
		return Entry{Names: []string{}}
	}
	return t.cells[c.Day][c.Slot]
}

// Lookup returns the entry for a (day, time) label pair.
func (t *Table) Lookup(day, time string) (Entry, bool) {
	c, ok := grid.Lookup(day, time)
	if !ok {
		return Entry{}, false
	}
	return t.At(c), true
}

// Total returns the number of (cell, name) placements in the table.
func (t *Table) Total() int {
	n := 0
	for d := range t.cells {
		for s := range t.cells[d] {
			n += t.cells[d][s].Count
		}
	}
	return n
}

// Max returns the highest cell count.
func (t *Table) Max() int {
	m := 0
	for d := range t.cells {
		for s := range t.cells[d] {
			m = max(m, t.cells[d][s].Count)
		}
	}
	return m
}

// CellsFor returns the cells in which name appears, day-major.
func (t *Table) CellsFor(name string) []grid.Cell {
	var out []grid.Cell
	for _, day := range grid.Weekdays() {
		for _, slot := range grid.TimeSlots() {
			for _, n := range t.cells[day][slot].Names {
				if n == name {
					out = append(out, grid.Cell{Day: day, Slot: slot})
					break
				}
			}
		}
	}
	return out
}

// SlotCount pairs a cell with its occupancy count.
type SlotCount struct {
	Cell  grid.Cell
	Count int
}

// BestSlots returns up to k non-empty cells ordered by count descending,
// ties broken chronologically.
func (t *Table) BestSlots(k int) []SlotCount {
	var all []SlotCount
	for _, day := range grid.Weekdays() {
		for _, slot := range grid.TimeSlots() {
			if n := t.cells[day][slot].Count; n > 0 {
				all = append(all, SlotCount{Cell: grid.Cell{Day: day, Slot: slot}, Count: n})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})
	if k >= 0 && len(all) > k {
		all = all[:k]
	}
	return all
}

// AggregateOptions tunes name handling.
type AggregateOptions struct {
	FirstNameOnly bool // Reduce names to their first word
}

// Aggregate rebuilds the table from rows. Rows whose day or time do not
// match a grid cell are dropped silently.
func Aggregate(rows []Row, opts AggregateOptions) *Table {
	t := NewTable()
	for _, r := range rows {
		c, ok := grid.Lookup(r.Day, r.Time)
		if !ok {
			t.Dropped++
			continue
		}
		name := r.Name()
		if opts.FirstNameOnly {
			name = firstWord(name)
		}
		e := &t.cells[c.Day][c.Slot]
		e.Count++
		e.Names = append(e.Names, name)
	}
	return t
}

func firstWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return UnknownName
	}
	return fields[0]
}
