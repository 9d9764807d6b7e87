package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/tui/input"
	"github.com/cosmelab/labgrid/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Grid
	DayHeader      lipgloss.Style
	TimeLabel      lipgloss.Style
	Gap            lipgloss.Style
	Cell           lipgloss.Style
	CellSelected   lipgloss.Style
	Cursor         lipgloss.Style
	CursorSelected lipgloss.Style

	// Heatmap density, indexed by heatmap.Band
	Bands [4]lipgloss.Style

	// Messages
	Status  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Muted   lipgloss.Style

	// Student panel
	Highlight lipgloss.Style
	Tooltip   lipgloss.Style

	// Form
	FormLabel       lipgloss.Style
	FormText        lipgloss.Style
	FormPlaceholder lipgloss.Style
	FormCursor      lipgloss.Style
	FormFocused     lipgloss.Style
	FormBlurred     lipgloss.Style
	FormLocked      lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	base := lipgloss.NewStyle().Background(p.Bg).Foreground(p.Fg)

	s := &Styles{palette: p}

	s.Title = base.Bold(true).Foreground(p.Accent)
	s.Subtitle = base.Foreground(p.FgMuted)

	s.DayHeader = base.Bold(true).Foreground(p.Accent)
	s.TimeLabel = base.Foreground(p.FgMuted)
	s.Gap = base
	s.Cell = lipgloss.NewStyle().Background(p.BgHighlight).Foreground(p.FgMuted)
	s.CellSelected = lipgloss.NewStyle().Background(p.Selected).Foreground(p.TextOnSelected).Bold(true)
	s.Cursor = lipgloss.NewStyle().Background(p.BgSelection).Foreground(p.Accent).Bold(true)
	s.CursorSelected = s.CellSelected.Underline(true)

	for i := range s.Bands {
		s.Bands[i] = lipgloss.NewStyle().Background(p.Bands[i]).Foreground(p.BandText[i])
	}

	s.Status = base.Foreground(p.Fg)
	s.Success = base.Bold(true).Foreground(p.Success)
	s.Warning = base.Foreground(p.Warning)
	s.Error = base.Bold(true).Foreground(p.Error)
	s.Help = base.Foreground(p.FgMuted)
	s.Muted = base.Foreground(p.FgMuted)

	s.Highlight = base.Bold(true).Foreground(p.Accent)
	s.Tooltip = base.Foreground(p.Fg).Italic(true)

	s.FormLabel = base.Foreground(p.FgMuted)
	s.FormText = lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgHighlight)
	s.FormPlaceholder = lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BgHighlight)
	s.FormCursor = lipgloss.NewStyle().Foreground(p.Accent)
	s.FormFocused = lipgloss.NewStyle().Background(p.BgHighlight).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Accent).
		BorderBackground(p.Bg)
	s.FormBlurred = s.FormFocused.BorderForeground(p.BgSelection)
	s.FormLocked = lipgloss.NewStyle().Background(p.Bg).Foreground(p.FgMuted)

	return s
}

// Bg returns the app background.
func (s *Styles) Bg() lipgloss.Color {
	return s.palette.Bg
}

// Band returns the cell style for a density band.
func (s *Styles) Band(b heatmap.Band) lipgloss.Style {
	if b < heatmap.BandNone || b > heatmap.BandHigh {
		b = heatmap.BandNone
	}
	return s.Bands[b]
}

// StudentColor maps a palette name ("purple", "cyan", ...) to a color.
func (s *Styles) StudentColor(name string) lipgloss.Color {
	return s.palette.Student(name)
}

// FormStyles returns the styles used by input forms.
func (s *Styles) FormStyles() input.Styles {
	return input.Styles{
		Label:       s.FormLabel,
		Text:        s.FormText,
		Placeholder: s.FormPlaceholder,
		Cursor:      s.FormCursor,
		Focused:     s.FormFocused,
		Blurred:     s.FormBlurred,
		Locked:      s.FormLocked,
	}
}

func loadStyles(name string) *Styles {
	t, err := theme.Load(name)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}
	return NewStyles(t)
}
