package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/poll"
	"github.com/cosmelab/labgrid/internal/tui/commands"
	"github.com/cosmelab/labgrid/internal/tui/input"
)

var pollNow = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

func newTestPoll(t *testing.T, sub *fakeSubmitter) PollModel {
	t.Helper()
	session := poll.NewSession(poll.NewValidator(""), sub, poll.WithClock(func() time.Time { return pollNow }))
	m := NewPoll(context.Background(), PollOptions{
		Session: session,
		Now:     func() time.Time { return pollNow },
	})
	return sendPoll(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func sendPoll(t *testing.T, m PollModel, msgs ...tea.Msg) PollModel {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		var ok bool
		m, ok = updated.(PollModel)
		if !ok {
			t.Fatalf("Update returned %T, want PollModel", updated)
		}
	}
	return m
}

func typeText(t *testing.T, m PollModel, s string) PollModel {
	t.Helper()
	for _, r := range s {
		m = sendPoll(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// fillForm types name and email and leaves focus on the grid.
func fillForm(t *testing.T, m PollModel, name, email string) PollModel {
	t.Helper()
	m.form.Focus(0)
	m = typeText(t, m, name)
	m = sendPoll(t, m, key("tab"))
	m = typeText(t, m, email)
	return sendPoll(t, m, key("esc"))
}

func TestPoll_StartsWithNameFocused(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	if m.form.Focused() != 0 {
		t.Errorf("focus = %d, want name field", m.form.Focused())
	}

	m = sendPoll(t, m, key("tab"), key("tab"))
	if m.form.Focused() != input.NoFocus {
		t.Errorf("focus = %d after two tabs, want grid", m.form.Focused())
	}
}

func TestPoll_SpaceToggles(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	m = sendPoll(t, m, key("esc"), key("right"), key("down"), key(" "))

	c := grid.Cell{Day: 1, Slot: 1}
	if !m.selection.IsSelected(c) || m.selection.Size() != 1 {
		t.Fatalf("cell %v not selected, size = %d", c, m.selection.Size())
	}
	if m.drag.Dragging() {
		t.Error("space should not leave a gesture open")
	}

	m = sendPoll(t, m, key(" "))
	if m.selection.Size() != 0 {
		t.Errorf("size = %d after second toggle, want 0", m.selection.Size())
	}
}

func TestPoll_KeyboardDrag(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	m = sendPoll(t, m, key("esc"), key("shift+down"), key("J"))

	for slot := 0; slot < 3; slot++ {
		if !m.selection.IsSelected(grid.Cell{Day: 0, Slot: grid.TimeSlot(slot)}) {
			t.Errorf("slot %d not selected", slot)
		}
	}
	if !m.selState.HasBlock || m.selState.ShowWarning() {
		t.Errorf("state = %+v, want a block without warning", *m.selState)
	}
	if !m.drag.Dragging() {
		t.Fatal("drag should stay open while extending")
	}

	m = sendPoll(t, m, key("down"))
	if m.drag.Dragging() {
		t.Error("plain movement should end the drag")
	}
	if m.selection.IsSelected(grid.Cell{Day: 0, Slot: 3}) {
		t.Error("cell after the drag ended was selected")
	}

	// Starting on a selected cell deselects.
	m = sendPoll(t, m, key("up"), key("shift+up"))
	if m.selection.IsSelected(grid.Cell{Day: 0, Slot: 2}) || m.selection.IsSelected(grid.Cell{Day: 0, Slot: 1}) {
		t.Error("deselecting drag left cells selected")
	}
	if m.drag.Mode() != grid.DragDeselecting {
		t.Errorf("mode = %v, want deselecting", m.drag.Mode())
	}
}

func TestPoll_MouseDrag(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	l := m.gridLayout()

	x, y := cellPoint(l, grid.Cell{Day: 2, Slot: 4})
	m = sendPoll(t, m, mouse(tea.MouseActionPress, x, y))
	if m.form.Focused() != input.NoFocus {
		t.Error("click on the grid should blur the form")
	}
	m = sendPoll(t, m,
		mouse(tea.MouseActionMotion, x, y+1),
		mouse(tea.MouseActionMotion, x-2, y+1), // gap before the column: no cell
		mouse(tea.MouseActionMotion, x, y+2),
		mouse(tea.MouseActionRelease, 0, 0),
		mouse(tea.MouseActionMotion, x, y+3),
	)

	want := []grid.Cell{{Day: 2, Slot: 4}, {Day: 2, Slot: 5}, {Day: 2, Slot: 6}}
	got := m.selection.Cells()
	if len(got) != len(want) {
		t.Fatalf("selected %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPoll_MouseOutsideGridDoesNothing(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	m = sendPoll(t, m, mouse(tea.MouseActionPress, 0, 0), mouse(tea.MouseActionMotion, 20, 10))
	if m.selection.Size() != 0 || m.drag.Dragging() {
		t.Errorf("size = %d, dragging = %v", m.selection.Size(), m.drag.Dragging())
	}
}

func TestPoll_ClearNeedsConfirmation(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	m = sendPoll(t, m, key("esc"), key(" "), key("c"))
	if m.selection.Size() != 1 || !m.pendingClear {
		t.Fatalf("size = %d, pending = %v", m.selection.Size(), m.pendingClear)
	}

	m = sendPoll(t, m, key("down"))
	if m.selection.Size() != 1 || m.pendingClear || m.status.text != "" {
		t.Fatalf("other key should cancel: size = %d, status = %q", m.selection.Size(), m.status.text)
	}

	m = sendPoll(t, m, key("c"), key("c"))
	if m.selection.Size() != 0 {
		t.Errorf("size = %d after confirm, want 0", m.selection.Size())
	}
}

func TestPoll_SubmitValidation(t *testing.T) {
	tests := []struct {
		name  string
		who   string
		email string
		pick  bool
		want  error
	}{
		{name: "missing name", email: "ana@ucr.edu", pick: true, want: poll.ErrNameRequired},
		{name: "missing email", who: "Ana", pick: true, want: poll.ErrEmailRequired},
		{name: "wrong domain", who: "Ana", email: "ana@gmail.com", pick: true, want: poll.ErrEmailDomain},
		{name: "no selection", who: "Ana", email: "ana@ucr.edu", want: poll.ErrNoSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			m := fillForm(t, newTestPoll(t, sub), tt.who, tt.email)
			if tt.pick {
				m = sendPoll(t, m, key(" "))
			}

			updated, cmd := m.Update(key("enter"))
			m = updated.(PollModel)
			if m.submitting {
				t.Fatal("invalid form should not start a submission")
			}
			if m.status.text != tt.want.Error() || m.status.kind != statusError {
				t.Errorf("status = %q (%v), want %q", m.status.text, m.status.kind, tt.want.Error())
			}
			if cmd == nil {
				t.Error("expected a status clear command")
			}
			if sub.calls != 0 {
				t.Errorf("submitter called %d times", sub.calls)
			}
		})
	}
}

func TestPoll_SubmitSuccessLocks(t *testing.T) {
	sub := &fakeSubmitter{}
	m := fillForm(t, newTestPoll(t, sub), "Ana Ruiz", "ana@ucr.edu")
	m = sendPoll(t, m, key("shift+down"), key("shift+down"))

	updated, cmd := m.Update(key("enter"))
	m = updated.(PollModel)
	if !m.submitting || cmd == nil {
		t.Fatalf("submitting = %v, has cmd = %v", m.submitting, cmd != nil)
	}
	if m.status.text != submittingText {
		t.Errorf("status = %q", m.status.text)
	}

	// A second enter while in flight is ignored.
	if _, again := m.Update(key("enter")); again != nil {
		t.Error("second submit while in flight issued a command")
	}

	m = sendPoll(t, m, cmd())
	if !m.Submitted() || m.submitting {
		t.Fatalf("submitted = %v, submitting = %v", m.Submitted(), m.submitting)
	}
	want := "Thank you, Ana Ruiz! Your availability has been submitted."
	if m.status.text != want {
		t.Errorf("status = %q, want %q", m.status.text, want)
	}
	if sub.calls != 1 || len(sub.last.Selections) != 3 {
		t.Errorf("calls = %d, selections = %+v", sub.calls, sub.last.Selections)
	}
	if !m.form.Locked() {
		t.Error("form should be locked after success")
	}

	m = sendPoll(t, m, key(" "), key("c"))
	if m.selection.Size() != 3 {
		t.Errorf("grid changed after submit: size = %d", m.selection.Size())
	}
	if _, cmd := m.Update(key("enter")); cmd != nil {
		t.Error("submit after success issued a command")
	}
}

func TestPoll_GridReadOnlyWhileSubmitting(t *testing.T) {
	sub := &fakeSubmitter{}
	m := fillForm(t, newTestPoll(t, sub), "Ana Ruiz", "ana@ucr.edu")
	m = sendPoll(t, m, key(" "))

	updated, cmd := m.Update(key("enter"))
	m = updated.(PollModel)
	if !m.submitting || cmd == nil {
		t.Fatalf("submitting = %v, has cmd = %v", m.submitting, cmd != nil)
	}

	// Edits made before the result arrives are not part of the submission.
	target := grid.Cell{Day: 3, Slot: 5}
	x, y := cellPoint(m.gridLayout(), target)
	m = sendPoll(t, m,
		mouse(tea.MouseActionPress, x, y), mouse(tea.MouseActionRelease, x, y),
		key("down"), key(" "), key("shift+right"), key("c"))
	if m.selection.Size() != 1 || m.selection.IsSelected(target) {
		t.Fatalf("grid changed while submitting: size = %d", m.selection.Size())
	}

	m = sendPoll(t, m, cmd())
	if !m.Submitted() {
		t.Fatal("submission not accepted")
	}
	if len(sub.last.Selections) != 1 || m.SentHours() != 1 {
		t.Errorf("sent %d cells, model reports %d", len(sub.last.Selections), m.SentHours())
	}
}

func TestPoll_SubmitFailureKeepsSelection(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("network down")}
	m := fillForm(t, newTestPoll(t, sub), "Ana", "ana@ucr.edu")
	m = sendPoll(t, m, key(" "))

	updated, cmd := m.Update(key("ctrl+s"))
	m = sendPoll(t, updated.(PollModel), cmd())

	if m.Submitted() || m.submitting {
		t.Errorf("submitted = %v, submitting = %v", m.Submitted(), m.submitting)
	}
	if m.status.text != submitErrorText {
		t.Errorf("status = %q, want %q", m.status.text, submitErrorText)
	}
	if m.selection.Size() != 1 || m.form.Locked() {
		t.Error("failure should leave the selection and form usable")
	}
}

func TestPoll_ResubmissionNotice(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	prev := &poll.Receipt{SubmittedAt: time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local)}
	m = sendPoll(t, m, commands.SubmittedMsg{Result: &poll.Result{
		Submission: &poll.Submission{StudentName: "Ana"},
		Previous:   prev,
	}})

	if !strings.Contains(m.notice, "2025-01-02") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestPoll_IdentityPrefill(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	m = typeText(t, m, "Typed")
	m = sendPoll(t, m, commands.IdentityMsg{Identity: endpoint.Identity{Name: "Ana Ruiz", Email: "ana.ruiz@ucr.edu"}})

	if got := m.form.Value(fieldName); got != "Typed" {
		t.Errorf("name = %q, typed value should win", got)
	}
	if got := m.form.Value(fieldEmail); got != "ana.ruiz@ucr.edu" {
		t.Errorf("email = %q", got)
	}
}

func TestPoll_CopyCalendar(t *testing.T) {
	m := newTestPoll(t, &fakeSubmitter{})
	updated, _ := m.Update(key("esc"))
	m = updated.(PollModel)

	updated, _ = m.Update(key("y"))
	m = updated.(PollModel)
	if m.status.kind != statusWarning {
		t.Errorf("empty selection status = %q", m.status.text)
	}

	m = sendPoll(t, m, key(" "))
	if _, cmd := m.Update(key("y")); cmd == nil {
		t.Error("expected a copy command")
	}
}

func TestPoll_View(t *testing.T) {
	useASCII(t)
	m := newTestPoll(t, &fakeSubmitter{})
	m = sendPoll(t, m, key("esc"), key("down"), key(" "))

	lines := strings.Split(ansi.Strip(m.View()), "\n")
	l := m.gridLayout()
	if len(lines) != 40 {
		t.Fatalf("view has %d lines, want 40", len(lines))
	}
	if !strings.Contains(lines[l.Top-1], "Mon") {
		t.Errorf("day header not above first slot: %q", lines[l.Top-1])
	}
	if !strings.HasPrefix(lines[l.Top], " 8:00 AM") {
		t.Errorf("first slot row = %q", lines[l.Top])
	}
	if !strings.Contains(lines[l.Top+1], "[✓]") {
		t.Errorf("cursor cell missing on %q", lines[l.Top+1])
	}

	view := strings.Join(lines, "\n")
	for _, want := range []string{"1 hour selected", "No block of 3 consecutive hours"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
