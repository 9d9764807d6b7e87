package heatmap

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Band is a density class for a heatmap cell.
type Band int

const (
	BandNone Band = iota
	BandLow
	BandMedium
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	case BandHigh:
		return "high"
	default:
		return "none"
	}
}

// ErrInvalidThresholds is returned for thresholds that are not strictly increasing
// positive counts.
var ErrInvalidThresholds = errors.New("band thresholds must be strictly increasing and positive")

// Banding is a step function from a cell count to a Band. Low, Medium and
// High hold the minimum count for each band; anything below Low is BandNone.
type Banding struct {
	Low    int
	Medium int
	High   int
}

// DefaultBanding matches 0 → none, 1–2 → low, 3–4 → medium, 5+ → high.
func DefaultBanding() Banding {
	return Banding{Low: 1, Medium: 3, High: 5}
}

// NewBanding validates and returns a banding from three thresholds.
func NewBanding(low, medium, high int) (Banding, error) {
	if low <= 0 || medium <= low || high <= medium {
		return Banding{}, fmt.Errorf("%w: %d, %d, %d", ErrInvalidThresholds, low, medium, high)
	}
	return Banding{Low: low, Medium: medium, High: high}, nil
}

// Band returns the band for count.
func (b Banding) Band(count int) Band {
	switch {
	case count >= b.High:
		return BandHigh
	case count >= b.Medium:
		return BandMedium
	case count >= b.Low:
		return BandLow
	default:
		return BandNone
	}
}

// SortOrder selects how per-student totals are presented.
type SortOrder string

const (
	SortByTotal SortOrder = "total"
	SortByName  SortOrder = "name"
)

// ParseSortOrder accepts "total" or "name"; empty means SortByTotal.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByTotal:
		return SortByTotal, nil
	case SortByName:
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want total or name)", s)
	}
}

// StudentTotal is the number of cells a submitter appears in.
type StudentTotal struct {
	Name    string
	Slots   int
	Percent float64 // Slots relative to the largest total, 0–100
}

// StudentTotals counts, per submitter, the cells their name appears in
// across the whole grid.
func StudentTotals(t *Table, order SortOrder) []StudentTotal {
	counts := make(map[string]int)
	for d := range t.cells {
		for s := range t.cells[d] {
			for _, name := range t.cells[d][s].Names {
				counts[name]++
			}
		}
	}

	totals := make([]StudentTotal, 0, len(counts))
	maxSlots := 0
	for name, n := range counts {
		totals = append(totals, StudentTotal{Name: name, Slots: n})
		maxSlots = max(maxSlots, n)
	}

	switch order {
	case SortByName:
		sort.Slice(totals, func(i, j int) bool {
			return totals[i].Name < totals[j].Name
		})
	default:
		sort.Slice(totals, func(i, j int) bool {
			if totals[i].Slots != totals[j].Slots {
				return totals[i].Slots > totals[j].Slots
			}
			return totals[i].Name < totals[j].Name
		})
	}

	for i := range totals {
		totals[i].Percent = float64(totals[i].Slots) / float64(maxSlots) * 100
	}
	return totals
}

// Names returns the submitter names in the order they first appear in the
// table, scanning day-major then chronologically.
func (t *Table) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for d := range t.cells {
		for s := range t.cells[d] {
			for _, n := range t.cells[d][s].Names {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
	}
	return names
}

// Palette is the fixed set of student colors.
var Palette = []string{"purple", "cyan", "green", "pink", "orange", "magenta", "red", "yellow"}

// ColorAssigner maps submitter names onto Palette.
type ColorAssigner struct {
	rng *rand.Rand
}

// NewColorAssigner returns an assigner. rng is used only in randomized mode;
// nil seeds a fresh source.
func NewColorAssigner(rng *rand.Rand) *ColorAssigner {
	return &ColorAssigner{rng: rng}
}

// Assign gives each name a palette color by position in names, cycling
// when there are more names than colors. With randomize the palette order
// is shuffled first; two names still share a color only past len(Palette).
func (a *ColorAssigner) Assign(names []string, randomize bool) map[string]string {
	colors := append([]string(nil), Palette...)
	if randomize {
		rng := a.rng
		if rng == nil {
			rng = rand.New(rand.NewSource(rand.Int63()))
		}
		rng.Shuffle(len(colors), func(i, j int) {
			colors[i], colors[j] = colors[j], colors[i]
		})
	}

	out := make(map[string]string, len(names))
	next := 0
	for _, name := range names {
		if _, ok := out[name]; ok {
			continue
		}
		out[name] = colors[next%len(colors)]
		next++
	}
	return out
}
