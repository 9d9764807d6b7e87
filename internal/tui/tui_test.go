package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/poll"
	"github.com/cosmelab/labgrid/internal/tui/view"
)

func useASCII(t *testing.T) {
	t.Helper()
	prevProfile := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(prevProfile)
	})
}

var specialKeys = map[string]tea.KeyType{
	"tab":         tea.KeyTab,
	"shift+tab":   tea.KeyShiftTab,
	"enter":       tea.KeyEnter,
	"esc":         tea.KeyEsc,
	" ":           tea.KeySpace,
	"up":          tea.KeyUp,
	"down":        tea.KeyDown,
	"left":        tea.KeyLeft,
	"right":       tea.KeyRight,
	"shift+up":    tea.KeyShiftUp,
	"shift+down":  tea.KeyShiftDown,
	"shift+left":  tea.KeyShiftLeft,
	"shift+right": tea.KeyShiftRight,
	"ctrl+s":      tea.KeyCtrlS,
	"ctrl+c":      tea.KeyCtrlC,
}

func key(s string) tea.KeyMsg {
	if kt, ok := specialKeys[s]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// cellPoint returns a screen coordinate inside c for layout l.
func cellPoint(l view.GridLayout, c grid.Cell) (int, int) {
	return l.Left + int(c.Day)*(l.CellWidth+l.Gap) + 1, l.Top + int(c.Slot)
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

type fakeSubmitter struct {
	calls int
	last  *poll.Submission
	err   error
}

func (f *fakeSubmitter) SubmitAvailability(_ context.Context, s *poll.Submission) error {
	f.calls++
	f.last = s
	return f.err
}

type fakeFetcher struct {
	rows []heatmap.Row
	err  error
}

func (f *fakeFetcher) FetchSchedule(context.Context) ([]heatmap.Row, error) {
	return f.rows, f.err
}

func TestStyles_BandsFollowTheme(t *testing.T) {
	s := loadStyles("dracula")
	for b := heatmap.BandNone; b <= heatmap.BandHigh; b++ {
		got, ok := s.Band(b).GetBackground().(lipgloss.Color)
		if !ok {
			t.Fatalf("band %v background type = %T", b, s.Band(b).GetBackground())
		}
		if got != s.palette.Bands[b] {
			t.Errorf("band %v background = %q, want %q", b, got, s.palette.Bands[b])
		}
	}
	if s.Band(heatmap.Band(42)).GetBackground() != s.Band(heatmap.BandNone).GetBackground() {
		t.Error("out-of-range band should fall back to none")
	}
}

func TestStyles_UnknownThemeFallsBack(t *testing.T) {
	s := loadStyles("does-not-exist")
	if s.Bg() != loadStyles("dracula").Bg() {
		t.Errorf("Bg = %q, want dracula background", s.Bg())
	}
	if s.StudentColor("purple") == "" {
		t.Error("student palette color missing")
	}
}

func TestStatus_ClearIgnoresOlderSeq(t *testing.T) {
	var s status
	s.set(statusInfo, "first")
	old := s.seq
	s.set(statusInfo, "second")

	s.clear(old)
	if s.text != "second" {
		t.Errorf("text = %q, want second", s.text)
	}
	s.clear(s.seq)
	if s.text != "" {
		t.Errorf("text = %q, want cleared", s.text)
	}

	s.pin(statusSuccess, "pinned")
	s.clear(s.seq)
	if s.text != "pinned" {
		t.Error("pinned status should survive its clear")
	}
	s.dismiss()
	if s.text != "" {
		t.Error("dismiss should remove a pinned status")
	}
}
