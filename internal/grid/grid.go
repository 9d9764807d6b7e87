// Package grid defines the fixed weekday × time-slot availability grid
// and the selection state that lives on top of it.
package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Grid dimensions. Every page that reads or writes availability shares them.
const (
	NumDays  = 5
	NumSlots = 11
	NumCells = NumDays * NumSlots

	// FirstHour is the hour of day of slot 0 (8:00 AM).
	FirstHour = 8
)

// Parsing errors.
var (
	ErrInvalidKey     = errors.New("cell key must be in <day>-<slot> format")
	ErrCellOutOfRange = errors.New("cell is outside the availability grid")
	ErrUnknownWeekday = errors.New("unknown weekday")
	ErrUnknownSlot    = errors.New("unknown time slot")
)

var weekdayNames = [NumDays]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var slotLabels = [NumSlots]string{
	"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM",
	"12:00 PM", "1:00 PM", "2:00 PM", "3:00 PM",
	"4:00 PM", "5:00 PM", "6:00 PM",
}

// Weekday is a column of the grid, 0=Monday through 4=Friday.
type Weekday int

// Valid returns true if the weekday is inside the grid.
func (d Weekday) Valid() bool {
	return d >= 0 && d < NumDays
}

// String returns the full weekday name, e.g. "Monday".
func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Short returns the three-letter weekday abbreviation.
func (d Weekday) Short() string {
	return d.String()[:3]
}

// TimeSlot is a row of the grid, 0="8:00 AM" through 10="6:00 PM".
type TimeSlot int

// Valid returns true if the slot is inside the grid.
func (s TimeSlot) Valid() bool {
	return s >= 0 && s < NumSlots
}

// String returns the slot label, e.g. "9:00 AM".
func (s TimeSlot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TimeSlot(%d)", int(s))
	}
	return slotLabels[s]
}

// Hour returns the 24-hour clock hour the slot starts at.
func (s TimeSlot) Hour() int {
	return FirstHour + int(s)
}

// Weekdays returns the grid columns in order.
func Weekdays() []Weekday {
	days := make([]Weekday, NumDays)
	for i := range days {
		days[i] = Weekday(i)
	}
	return days
}

// TimeSlots returns the grid rows in chronological order.
func TimeSlots() []TimeSlot {
	slots := make([]TimeSlot, NumSlots)
	for i := range slots {
		slots[i] = TimeSlot(i)
	}
	return slots
}

// ParseWeekday resolves an exact weekday label such as "Monday".
func ParseWeekday(name string) (Weekday, error) {
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
}

// ParseTimeSlot resolves an exact slot label such as "9:00 AM".
func ParseTimeSlot(label string) (TimeSlot, error) {
	for i, l := range slotLabels {
		if l == label {
			return TimeSlot(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownSlot, label)
}

// Cell is one (weekday, time slot) unit of the grid.
type Cell struct {
	Day  Weekday
	Slot TimeSlot
}

// Valid returns true if both coordinates are inside the grid.
func (c Cell) Valid() bool {
	return c.Day.Valid() && c.Slot.Valid()
}

// Key returns the canonical composite identity "<day>-<slot>".
func (c Cell) Key() string {
	return strconv.Itoa(int(c.Day)) + "-" + strconv.Itoa(int(c.Slot))
}

// String returns a readable form, e.g. "Monday 9:00 AM".
func (c Cell) String() string {
	return c.Day.String() + " " + c.Slot.String()
}

// index flattens the cell for bitset storage (day-major).
func (c Cell) index() int {
	return int(c.Day)*NumSlots + int(c.Slot)
}

func cellAt(index int) Cell {
	return Cell{Day: Weekday(index / NumSlots), Slot: TimeSlot(index % NumSlots)}
}

// ParseKey parses a "<day>-<slot>" key.
func ParseKey(key string) (Cell, error) {
	dayStr, slotStr, ok := strings.Cut(key, "-")
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	c := Cell{Day: Weekday(day), Slot: TimeSlot(slot)}
	if !c.Valid() {
		return Cell{}, fmt.Errorf("%w: %q", ErrCellOutOfRange, key)
	}
	return c, nil
}

// Lookup resolves a (day label, time label) pair to a cell.
// The second return is false when either label is outside the grid.
func Lookup(day, time string) (Cell, bool) {
	d, err := ParseWeekday(day)
	if err != nil {
		return Cell{}, false
	}
	s, err := ParseTimeSlot(time)
	if err != nil {
		return Cell{}, false
	}
	return Cell{Day: d, Slot: s}, true
}
