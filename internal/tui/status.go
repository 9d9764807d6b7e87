package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cosmelab/labgrid/internal/tui/commands"
)

// statusTimeout is how long a transient status stays on screen.
const statusTimeout = 5 * time.Second

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// status is the one-line message above the help line. Each set bumps seq
// so a clear scheduled for an older message does nothing.
type status struct {
	text   string
	kind   statusKind
	seq    int
	sticky bool
}

// set shows text and schedules its removal.
func (s *status) set(kind statusKind, text string) tea.Cmd {
	s.seq++
	s.text, s.kind, s.sticky = text, kind, false
	return commands.ClearStatusAfter(s.seq, statusTimeout)
}

// pin shows text until the next set or pin.
func (s *status) pin(kind statusKind, text string) {
	s.seq++
	s.text, s.kind, s.sticky = text, kind, true
}

// dismiss removes the current message, pinned or not.
func (s *status) dismiss() {
	s.seq++
	s.text, s.sticky = "", false
}

func (s *status) clear(seq int) {
	if seq == s.seq && !s.sticky {
		s.text = ""
	}
}

func (s status) style(st *Styles) lipgloss.Style {
	switch s.kind {
	case statusSuccess:
		return st.Success
	case statusWarning:
		return st.Warning
	case statusError:
		return st.Error
	default:
		return st.Status
	}
}
