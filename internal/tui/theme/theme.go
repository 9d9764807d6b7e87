// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// DefaultName is the theme used when none is configured.
const DefaultName = "dracula"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Grid cells, subtle highlight
	BgSelection string `toml:"bg_selection"` // Cursor
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Labels, hints
	Accent      string `toml:"accent"`       // Title, borders
	Selected    string `toml:"selected"`     // Selected availability cells
	Warning     string `toml:"warning"`      // Consecutive-block warning
	Success     string `toml:"success"`      // Submit success banner
	Error       string `toml:"error"`        // Validation and network errors

	// Density bands; derived from Accent when empty.
	BandLow    string `toml:"band_low"`
	BandMedium string `toml:"band_medium"`
	BandHigh   string `toml:"band_high"`

	// Student colors keyed by palette name (purple, cyan, ...).
	Students map[string]string `toml:"students"`
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load loads a theme by name from embedded files.
// Falls back to dracula if the theme is not found.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	name = strings.ToLower(name)

	path := "embedded/" + name + ".toml"
	data, err := embeddedThemes.ReadFile(path)
	if err != nil {
		if name != DefaultName {
			return Load(DefaultName)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()

	return &t, nil
}

func (t *Theme) applyDefaults() {
	if t.BandHigh == "" {
		t.BandHigh = t.Accent
	}
	if t.BandMedium == "" {
		t.BandMedium = blendColors(t.BandHigh, t.Bg, 0.35)
	}
	if t.BandLow == "" {
		t.BandLow = blendColors(t.BandHigh, t.Bg, 0.65)
	}
	if t.Selected == "" {
		t.Selected = coalesce(t.Success, t.Accent)
	}
	if t.Students == nil {
		t.Students = make(map[string]string)
	}
}

// Student returns the hex color for a palette name, or Accent when the
// theme does not define it.
func (t *Theme) Student(name string) string {
	return coalesce(t.Students[name], t.Accent)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"dracula", "alucard"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	name = strings.ToLower(name)
	for _, themeName := range Available() {
		if themeName == name {
			return true
		}
	}
	return false
}
