package poll

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cosmelab/labgrid/internal/grid"
)

func selectionOf(cells ...grid.Cell) *grid.Selection {
	sel := grid.NewSelection(0)
	for _, c := range cells {
		sel.Select(c)
	}
	return sel
}

func TestValidate_Order(t *testing.T) {
	one := selectionOf(grid.Cell{Day: 0, Slot: 0})
	empty := grid.NewSelection(0)

	tests := []struct {
		name    string
		student string
		email   string
		sel     *grid.Selection
		want    error
	}{
		{"everything missing", "", "", empty, ErrNameRequired},
		{"blank name", "   ", "a@ucr.edu", one, ErrNameRequired},
		{"missing email", "Ana", "", empty, ErrEmailRequired},
		{"wrong domain", "Ana", "ana@gmail.com", empty, ErrEmailDomain},
		{"uppercase domain", "Ana", "ana@UCR.EDU", one, ErrEmailDomain},
		{"no selection", "Ana", "ana@ucr.edu", empty, ErrNoSelection},
		{"nil selection", "Ana", "ana@ucr.edu", nil, ErrNoSelection},
		{"valid", "Ana", "ana@ucr.edu", one, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.student, tt.email, tt.sel)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	if ErrEmailDomain.Error() != "Please use your @ucr.edu email address" {
		t.Errorf("unexpected message %q", ErrEmailDomain.Error())
	}
	if ErrNoSelection.Error() != "Please select at least one time block" {
		t.Errorf("unexpected message %q", ErrNoSelection.Error())
	}
}

func TestValidator_CustomSuffix(t *testing.T) {
	v := NewValidator("@example.edu")
	err := v.Validate("Ana", "ana@ucr.edu", selectionOf(grid.Cell{}))
	if !errors.Is(err, ErrEmailDomain) {
		t.Fatalf("Validate() = %v, want ErrEmailDomain", err)
	}
	if err.Error() != "Please use your @example.edu email address" {
		t.Errorf("message = %q", err.Error())
	}
	if err := v.Validate("Ana", "ana@example.edu", selectionOf(grid.Cell{})); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestBuild_RecordsAndTimestamp(t *testing.T) {
	sel := selectionOf(
		grid.Cell{Day: 2, Slot: 5},
		grid.Cell{Day: 0, Slot: 1},
		grid.Cell{Day: 0, Slot: 0},
	)
	now := time.Date(2025, 3, 4, 17, 30, 0, 123000000, time.UTC)

	sub, err := Build("  Ana Ruiz ", " ana@ucr.edu ", sel, now)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if sub.StudentName != "Ana Ruiz" || sub.StudentEmail != "ana@ucr.edu" {
		t.Errorf("identity not trimmed: %+v", sub)
	}
	if sub.Timestamp != "2025-03-04T17:30:00.123Z" {
		t.Errorf("Timestamp = %q", sub.Timestamp)
	}

	want := []SelectionRecord{
		{Day: "Monday", Time: "8:00 AM", DayIndex: 0, TimeIndex: 0},
		{Day: "Monday", Time: "9:00 AM", DayIndex: 0, TimeIndex: 1},
		{Day: "Wednesday", Time: "1:00 PM", DayIndex: 2, TimeIndex: 5},
	}
	if len(sub.Selections) != len(want) {
		t.Fatalf("got %d records, want %d", len(sub.Selections), len(want))
	}
	for i := range want {
		if sub.Selections[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, sub.Selections[i], want[i])
		}
	}
}

func TestBuild_RecordCountMatchesSelection(t *testing.T) {
	sel := grid.NewSelection(0)
	for _, c := range []grid.Cell{{Day: 1, Slot: 1}, {Day: 1, Slot: 2}, {Day: 4, Slot: 10}} {
		sel.Toggle(c)
	}
	sub, err := Build("Lee", "lee@ucr.edu", sel, time.Now())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(sub.Selections) != sel.Size() {
		t.Errorf("records = %d, selection = %d", len(sub.Selections), sel.Size())
	}
	if got := sub.Cells(); len(got) != sel.Size() {
		t.Errorf("Cells() = %v", got)
	}
}

func TestSubmission_JSONFieldNames(t *testing.T) {
	sub, err := Build("Ana", "ana@ucr.edu", selectionOf(grid.Cell{Day: 4, Slot: 10}), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	data, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, key := range []string{"studentName", "studentEmail", "selections", "timestamp"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	rec := raw["selections"].([]any)[0].(map[string]any)
	if rec["day"] != "Friday" || rec["time"] != "6:00 PM" || rec["dayIndex"] != 4.0 || rec["timeIndex"] != 10.0 {
		t.Errorf("record = %v", rec)
	}
}

type fakeSubmitter struct {
	calls int
	err   error
	last  *Submission
}

func (f *fakeSubmitter) SubmitAvailability(_ context.Context, s *Submission) error {
	f.calls++
	f.last = s
	return f.err
}

type fakeReceipts struct {
	saved  []*Receipt
	latest *Receipt
}

func (f *fakeReceipts) SaveReceipt(_ context.Context, r *Receipt) error {
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeReceipts) LatestReceipt(_ context.Context, _ string) (*Receipt, error) {
	return f.latest, nil
}

func TestSession_LocksAfterSuccess(t *testing.T) {
	sub := &fakeSubmitter{}
	s := NewSession(NewValidator(""), sub)
	sel := selectionOf(grid.Cell{Day: 0, Slot: 0})

	if _, err := s.Submit(context.Background(), "Ana", "ana@ucr.edu", sel); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	if !s.Locked() {
		t.Error("session should be locked")
	}
	if _, err := s.Submit(context.Background(), "Ana", "ana@ucr.edu", sel); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit = %v, want ErrAlreadySubmitted", err)
	}
	if sub.calls != 1 {
		t.Errorf("submitter called %d times, want 1", sub.calls)
	}
}

func TestSession_FailureKeepsSelection(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("network down")}
	s := NewSession(NewValidator(""), sub)
	sel := selectionOf(grid.Cell{Day: 0, Slot: 0}, grid.Cell{Day: 0, Slot: 1})

	if _, err := s.Submit(context.Background(), "Ana", "ana@ucr.edu", sel); err == nil {
		t.Fatal("expected error")
	}
	if s.Locked() {
		t.Error("failed submit must not lock")
	}
	if sel.Size() != 2 {
		t.Errorf("selection changed: size %d", sel.Size())
	}

	sub.err = nil
	if _, err := s.Submit(context.Background(), "Ana", "ana@ucr.edu", sel); err != nil {
		t.Errorf("retry error: %v", err)
	}
}

func TestSession_ValidationDoesNotSend(t *testing.T) {
	sub := &fakeSubmitter{}
	s := NewSession(NewValidator(""), sub)
	if _, err := s.Submit(context.Background(), "", "", grid.NewSelection(0)); !errors.Is(err, ErrNameRequired) {
		t.Errorf("Submit = %v, want ErrNameRequired", err)
	}
	if sub.calls != 0 {
		t.Error("submitter must not be called on validation failure")
	}
}

func TestSession_Receipts(t *testing.T) {
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	prev := &Receipt{ID: 1, Email: "ana@ucr.edu", SubmittedAt: now.Add(-time.Hour)}
	store := &fakeReceipts{latest: prev}
	s := NewSession(NewValidator(""), &fakeSubmitter{}, WithReceipts(store), WithClock(func() time.Time { return now }))

	res, err := s.Submit(context.Background(), "Ana", "ana@ucr.edu", selectionOf(grid.Cell{Day: 3, Slot: 3}))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if res.Previous != prev {
		t.Errorf("Previous = %+v, want earlier receipt", res.Previous)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d receipts, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.Email != "ana@ucr.edu" || !got.SubmittedAt.Equal(now) || len(got.Cells) != 1 {
		t.Errorf("receipt = %+v", got)
	}
}
