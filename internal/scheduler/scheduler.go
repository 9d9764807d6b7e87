// Package scheduler finds lab session windows: runs of consecutive hours
// on one weekday where the most students are available together.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
)

// DefaultMaxWindows is how many windows Suggest returns by default.
const DefaultMaxWindows = 3

// Window is a candidate lab session.
type Window struct {
	Day    grid.Weekday
	Start  grid.TimeSlot
	Length int

	// Together lists the students available for the whole window.
	Together []string
	// Seats is the sum of the cell counts, the attendance if everyone
	// available in each hour comes.
	Seats int
}

// Cells returns the grid cells the window covers.
func (w Window) Cells() []grid.Cell {
	cells := make([]grid.Cell, 0, w.Length)
	for i := 0; i < w.Length; i++ {
		cells = append(cells, grid.Cell{Day: w.Day, Slot: w.Start + grid.TimeSlot(i)})
	}
	return cells
}

// End returns the last slot of the window.
func (w Window) End() grid.TimeSlot {
	return w.Start + grid.TimeSlot(w.Length-1)
}

// String formats the window as "Monday 9:00 AM-12:00 PM".
func (w Window) String() string {
	end := time.Date(2000, 1, 1, w.End().Hour()+1, 0, 0, 0, time.UTC).Format("3:04 PM")
	return fmt.Sprintf("%s %s-%s", w.Day, w.Start, end)
}

// overlaps reports whether w and o share a cell.
func (w Window) overlaps(o Window) bool {
	return w.Day == o.Day && w.Start <= o.End() && o.Start <= w.End()
}

// Scheduler scores windows of a fixed length.
type Scheduler struct {
	length int
}

// New creates a scheduler for windows of length hours. Lengths outside
// the grid fall back to grid.DefaultBlockLength.
func New(length int) *Scheduler {
	if length <= 0 || length > grid.NumSlots {
		length = grid.DefaultBlockLength
	}
	return &Scheduler{length: length}
}

// Length returns the window length in hours.
func (s *Scheduler) Length() int {
	return s.length
}

// CanFit reports whether a window starting at start ends inside the grid.
func (s *Scheduler) CanFit(start grid.TimeSlot) bool {
	return start.Valid() && int(start)+s.length <= grid.NumSlots
}

// Windows scores every window that fits in the grid and has at least one
// student available throughout. They are ordered best first: most
// students together, then most seats, then chronologically.
func (s *Scheduler) Windows(t *heatmap.Table) []Window {
	var windows []Window
	for _, day := range grid.Weekdays() {
		for _, start := range grid.TimeSlots() {
			if !s.CanFit(start) {
				break
			}
			w := s.score(t, day, start)
			if len(w.Together) > 0 {
				windows = append(windows, w)
			}
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if len(a.Together) != len(b.Together) {
			return len(a.Together) > len(b.Together)
		}
		return a.Seats > b.Seats
	})
	return windows
}

// Suggest returns up to k of the best windows that do not overlap.
func (s *Scheduler) Suggest(t *heatmap.Table, k int) []Window {
	if k <= 0 {
		k = DefaultMaxWindows
	}
	var picked []Window
	for _, w := range s.Windows(t) {
		if len(picked) == k {
			break
		}
		if !overlapsAny(w, picked) {
			picked = append(picked, w)
		}
	}
	return picked
}

func overlapsAny(w Window, others []Window) bool {
	for _, o := range others {
		if w.overlaps(o) {
			return true
		}
	}
	return false
}

func (s *Scheduler) score(t *heatmap.Table, day grid.Weekday, start grid.TimeSlot) Window {
	w := Window{Day: day, Start: start, Length: s.length}

	var present map[string]bool
	for _, c := range w.Cells() {
		e := t.At(c)
		w.Seats += e.Count

		here := make(map[string]bool, len(e.Names))
		for _, n := range e.Names {
			if present == nil || present[n] {
				here[n] = true
			}
		}
		present = here
	}

	// Keep the first cell's name order.
	for _, n := range t.At(grid.Cell{Day: day, Slot: start}).Names {
		if present[n] {
			w.Together = append(w.Together, n)
			delete(present, n)
		}
	}
	return w
}
