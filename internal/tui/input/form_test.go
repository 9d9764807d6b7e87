package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestForm() *Form {
	return NewForm(Styles{},
		Field{Key: "name", Label: "Name", CharLimit: 64},
		Field{Key: "email", Label: "Email", CharLimit: 128},
	)
}

func TestForm_FocusCycle(t *testing.T) {
	f := newTestForm()
	if f.Focused() != NoFocus {
		t.Fatalf("initial focus = %d, want NoFocus", f.Focused())
	}

	want := []int{0, 1, NoFocus, 0}
	for i, w := range want {
		f.Next()
		if f.Focused() != w {
			t.Errorf("step %d: Next focus = %d, want %d", i, f.Focused(), w)
		}
	}

	wantPrev := []int{NoFocus, 1, 0, NoFocus}
	for i, w := range wantPrev {
		f.Prev()
		if f.Focused() != w {
			t.Errorf("step %d: Prev focus = %d, want %d", i, f.Focused(), w)
		}
	}
}

func TestForm_TypingGoesToFocusedField(t *testing.T) {
	f := newTestForm()
	f.Focus(1)
	for _, r := range "ana@ucr.edu " {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	if got := f.Value("email"); got != "ana@ucr.edu" {
		t.Errorf("email = %q, want trimmed ana@ucr.edu", got)
	}
	if got := f.Value("name"); got != "" {
		t.Errorf("name = %q, want empty", got)
	}
	if got := f.Value("missing"); got != "" {
		t.Errorf("unknown key = %q, want empty", got)
	}
}

func TestForm_UnfocusedIgnoresKeys(t *testing.T) {
	f := newTestForm()
	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if f.Value("name") != "" || f.Value("email") != "" {
		t.Error("keys reached a field without focus")
	}
}

func TestForm_Lock(t *testing.T) {
	f := newTestForm()
	f.SetValue("name", "Ana")
	f.Focus(0)
	f.Lock()

	if !f.Locked() || f.Focused() != NoFocus {
		t.Fatalf("Locked = %v, focus = %d", f.Locked(), f.Focused())
	}
	if f.Focus(0); f.Focused() != NoFocus {
		t.Error("locked form accepted focus")
	}
	f.SetValue("name", "Ben")
	if got := f.Value("name"); got != "Ana" {
		t.Errorf("name = %q after lock, want Ana", got)
	}
}
