// Package poll validates and formats availability poll submissions.
package poll

import (
	"errors"
	"strings"
	"time"

	"github.com/cosmelab/labgrid/internal/grid"
)

// DefaultEmailSuffix is the institutional address suffix the poll requires.
const DefaultEmailSuffix = "@ucr.edu"

// Validation errors. The messages are shown to the student verbatim.
var (
	ErrNameRequired  = errors.New("Please enter your name")
	ErrEmailRequired = errors.New("Please enter your UCR email")
	ErrEmailDomain   = errors.New("Please use your @ucr.edu email address")
	ErrNoSelection   = errors.New("Please select at least one time block")
)

// SelectionRecord is one selected cell in wire form.
type SelectionRecord struct {
	Day       string `json:"day"`
	Time      string `json:"time"`
	DayIndex  int    `json:"dayIndex"`
	TimeIndex int    `json:"timeIndex"`
}

// Submission is the payload sent to the availability endpoint.
// It is built once at submit time and not modified afterwards.
type Submission struct {
	StudentName  string            `json:"studentName"`
	StudentEmail string            `json:"studentEmail"`
	Selections   []SelectionRecord `json:"selections"`
	Timestamp    string            `json:"timestamp"`
}

// Cells returns the grid cells named by the submission's records.
// Records that do not name a grid cell are skipped.
func (s *Submission) Cells() []grid.Cell {
	cells := make([]grid.Cell, 0, len(s.Selections))
	for _, r := range s.Selections {
		c := grid.Cell{Day: grid.Weekday(r.DayIndex), Slot: grid.TimeSlot(r.TimeIndex)}
		if c.Valid() {
			cells = append(cells, c)
		}
	}
	return cells
}

// Validator checks the submit preconditions.
type Validator struct {
	EmailSuffix string
}

// NewValidator returns a validator requiring suffix. Empty uses DefaultEmailSuffix.
func NewValidator(suffix string) Validator {
	if suffix == "" {
		suffix = DefaultEmailSuffix
	}
	return Validator{EmailSuffix: suffix}
}

// Validate checks, in order, name, email presence, email suffix and
// selection size, and returns the first failure. The suffix comparison is
// exact and case-sensitive.
func (v Validator) Validate(name, email string, sel *grid.Selection) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !strings.HasSuffix(email, v.suffix()) {
		if v.suffix() != DefaultEmailSuffix {
			return &DomainError{Suffix: v.suffix()}
		}
		return ErrEmailDomain
	}
	if sel == nil || sel.Size() == 0 {
		return ErrNoSelection
	}
	return nil
}

func (v Validator) suffix() string {
	if v.EmailSuffix == "" {
		return DefaultEmailSuffix
	}
	return v.EmailSuffix
}

// DomainError reports an email outside a non-default institutional domain.
// It matches ErrEmailDomain with errors.Is.
type DomainError struct {
	Suffix string
}

func (e *DomainError) Error() string {
	return "Please use your " + e.Suffix + " email address"
}

// Is makes errors.Is(err, ErrEmailDomain) hold for any suffix.
func (e *DomainError) Is(target error) bool {
	return target == ErrEmailDomain
}

// Build validates the inputs and projects the selection into a Submission
// stamped with now. Name and email are trimmed.
func (v Validator) Build(name, email string, sel *grid.Selection, now time.Time) (*Submission, error) {
	if err := v.Validate(name, email, sel); err != nil {
		return nil, err
	}

	cells := sel.Cells()
	records := make([]SelectionRecord, 0, len(cells))
	for _, c := range cells {
		records = append(records, SelectionRecord{
			Day:       c.Day.String(),
			Time:      c.Slot.String(),
			DayIndex:  int(c.Day),
			TimeIndex: int(c.Slot),
		})
	}

	return &Submission{
		StudentName:  strings.TrimSpace(name),
		StudentEmail: strings.TrimSpace(email),
		Selections:   records,
		Timestamp:    now.UTC().Format("2006-01-02T15:04:05.000Z"),
	}, nil
}

// Validate checks a submission against DefaultEmailSuffix.
func Validate(name, email string, sel *grid.Selection) error {
	return NewValidator("").Validate(name, email, sel)
}

// Build builds a submission against DefaultEmailSuffix.
func Build(name, email string, sel *grid.Selection, now time.Time) (*Submission, error) {
	return NewValidator("").Build(name, email, sel, now)
}
