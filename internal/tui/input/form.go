// Package input manages the text fields of the TUI forms.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NoFocus is returned by Focused when no field has focus.
const NoFocus = -1

// Field describes one text field.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	CharLimit   int
	Width       int
}

// Styles are applied to every field.
type Styles struct {
	Label       lipgloss.Style
	Text        lipgloss.Style
	Placeholder lipgloss.Style
	Cursor      lipgloss.Style
	Focused     lipgloss.Style
	Blurred     lipgloss.Style
	Locked      lipgloss.Style
}

// Form is an ordered set of text fields with one optional focus. Focus
// moves past the last field to NoFocus so the caller can hand keys to
// another component.
type Form struct {
	fields []Field
	inputs []textinput.Model
	focus  int
	locked bool
	styles Styles
}

// NewForm creates a form with the given fields and no focus.
func NewForm(styles Styles, fields ...Field) *Form {
	f := &Form{
		fields: fields,
		inputs: make([]textinput.Model, len(fields)),
		focus:  NoFocus,
		styles: styles,
	}
	for i, field := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = field.Placeholder
		ti.CharLimit = field.CharLimit
		ti.Width = field.Width
		ti.TextStyle = styles.Text
		ti.PlaceholderStyle = styles.Placeholder
		ti.Cursor.Style = styles.Cursor
		ti.Cursor.TextStyle = styles.Text
		f.inputs[i] = ti
	}
	return f
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.fields)
}

// Focused returns the focused field index or NoFocus.
func (f *Form) Focused() int {
	return f.focus
}

// Focus focuses field i; any other index blurs the form.
func (f *Form) Focus(i int) tea.Cmd {
	if f.focus >= 0 {
		f.inputs[f.focus].Blur()
	}
	if f.locked || i < 0 || i >= len(f.inputs) {
		f.focus = NoFocus
		return nil
	}
	f.focus = i
	return f.inputs[i].Focus()
}

// Next moves focus forward: field → next field → … → NoFocus → first.
func (f *Form) Next() tea.Cmd {
	switch {
	case f.focus == NoFocus:
		return f.Focus(0)
	case f.focus+1 >= len(f.inputs):
		return f.Focus(NoFocus)
	default:
		return f.Focus(f.focus + 1)
	}
}

// Prev moves focus backward, the reverse of Next.
func (f *Form) Prev() tea.Cmd {
	if f.focus == NoFocus {
		return f.Focus(len(f.inputs) - 1)
	}
	return f.Focus(f.focus - 1)
}

// Lock blurs the form and makes it read-only.
func (f *Form) Lock() {
	f.Focus(NoFocus)
	f.locked = true
}

// Locked reports whether the form is read-only.
func (f *Form) Locked() bool {
	return f.locked
}

// Value returns the trimmed value of the field named key.
func (f *Form) Value(key string) string {
	if i := f.index(key); i >= 0 {
		return strings.TrimSpace(f.inputs[i].Value())
	}
	return ""
}

// SetValue replaces the value of the field named key.
func (f *Form) SetValue(key, value string) {
	if i := f.index(key); i >= 0 && !f.locked {
		f.inputs[i].SetValue(value)
	}
}

// Update forwards msg to the focused field.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if f.locked || f.focus == NoFocus {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// View renders every field as "label  [value]", one per line.
func (f *Form) View() string {
	labelWidth := 0
	for _, field := range f.fields {
		labelWidth = max(labelWidth, lipgloss.Width(field.Label))
	}

	lines := make([]string, len(f.fields))
	for i, field := range f.fields {
		box := f.styles.Blurred
		switch {
		case f.locked:
			box = f.styles.Locked
		case i == f.focus:
			box = f.styles.Focused
		}
		label := f.styles.Label.Width(labelWidth + 2).Render(field.Label)
		lines[i] = lipgloss.JoinHorizontal(lipgloss.Top, label, box.Render(f.inputs[i].View()))
	}
	return strings.Join(lines, "\n")
}

func (f *Form) index(key string) int {
	for i, field := range f.fields {
		if field.Key == key {
			return i
		}
	}
	return -1
}
