// Package lablog defines daily lab log entries and the personal dashboard
// statistics computed from them.
package lablog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cosmelab/labgrid/internal/dateutil"
)

// Validation errors.
var (
	ErrMissingFields  = errors.New("Missing required fields.")
	ErrUnknownProject = errors.New("project is not in the configured list")
)

// DefaultProjects is the project list offered by the log form.
var DefaultProjects = []string{
	"Genomics pipeline",
	"Field sampling",
	"Microscopy",
	"Data analysis",
	"Lab maintenance",
	"Other",
}

// Hours is a decimal hour count. It decodes from a JSON number or a
// numeric string and encodes as a string with two decimals.
type Hours float64

// MarshalJSON writes the value as "H.HH".
func (h Hours) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(h), 'f', 2, 64))
}

// UnmarshalJSON accepts 2.5, "2.50" or null. Unparseable values decode as 0.
func (h *Hours) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*h = Hours(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			*h = 0
			return nil
		}
		*h = Hours(f)
	default:
		*h = 0
	}
	return nil
}

// Entry is one lab visit.
type Entry struct {
	Email           string `json:"email,omitempty"`
	Name            string `json:"name"`
	Date            string `json:"date"`
	TimeIn          string `json:"time_in"`
	TimeOut         string `json:"time_out"`
	Project         string `json:"project"`
	Accomplishments string `json:"accomplishments"`
	HoursWorked     Hours  `json:"hours_worked"`
}

// Validate checks that every required field is present and that both
// times parse. It does not recompute HoursWorked.
func (e *Entry) Validate() error {
	required := []string{e.Name, e.Date, e.TimeIn, e.TimeOut, e.Project, e.Accomplishments}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	if _, err := dateutil.ParseDate(e.Date); err != nil {
		return fmt.Errorf("date %q: %w", e.Date, err)
	}
	if _, err := HoursWorked(e.TimeIn, e.TimeOut); err != nil {
		return err
	}
	return nil
}

// Finalize validates the entry and fills HoursWorked from the clock times.
func (e *Entry) Finalize() error {
	if err := e.Validate(); err != nil {
		return err
	}
	hours, err := HoursWorked(e.TimeIn, e.TimeOut)
	if err != nil {
		return err
	}
	e.HoursWorked = Hours(hours)
	return nil
}

// CheckProject reports whether the entry's project is one of projects.
// An empty list accepts anything.
func (e *Entry) CheckProject(projects []string) error {
	if len(projects) == 0 {
		return nil
	}
	for _, p := range projects {
		if p == e.Project {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownProject, e.Project)
}

// DurationMinutes returns the minutes between two "HH:MM" clock times.
// A time out earlier than time in is treated as crossing midnight.
func DurationMinutes(timeIn, timeOut string) (int, error) {
	in, err := dateutil.ParseClock(timeIn)
	if err != nil {
		return 0, fmt.Errorf("time in: %w", err)
	}
	out, err := dateutil.ParseClock(timeOut)
	if err != nil {
		return 0, fmt.Errorf("time out: %w", err)
	}
	diff := out - in
	if diff < 0 {
		diff += 24 * 60
	}
	return diff, nil
}

// HoursWorked returns the decimal hours between two clock times, rounded
// to two decimals.
func HoursWorked(timeIn, timeOut string) (float64, error) {
	mins, err := DurationMinutes(timeIn, timeOut)
	if err != nil {
		return 0, err
	}
	return math.Round(float64(mins)/60*100) / 100, nil
}

// FormatDuration renders decimal hours as "Xh Ym", or "Xh" when the
// minutes round to zero.
func FormatDuration(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	h := math.Floor(hours)
	m := math.Round((hours - h) * 60)
	if m == 60 {
		h++
		m = 0
	}
	if m == 0 {
		return fmt.Sprintf("%dh", int(h))
	}
	return fmt.Sprintf("%dh %dm", int(h), int(m))
}

// NameFromEmail derives a display name from the local part of an address:
// "jane.doe@ucr.edu" becomes "Jane Doe".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return ""
	}
	parts := strings.Split(local, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
