package tui

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cosmelab/labgrid/internal/calendar"
	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/summary"
	"github.com/cosmelab/labgrid/internal/tui/commands"
)

// HeatmapOptions configures the schedule heatmap.
type HeatmapOptions struct {
	Fetcher summary.Fetcher
	Build   summary.BuildOptions
	Banding heatmap.Banding
	Theme   string
	Logger  *zap.Logger
	Rand    *rand.Rand
	Now     func() time.Time
}

// HeatmapModel shows how many students are available per cell, a tooltip
// for the cell under the cursor and per-student totals.
type HeatmapModel struct {
	ctx  context.Context
	opts HeatmapOptions

	styles *Styles
	log    eventLogger
	rng    *rand.Rand

	summary *summary.ScheduleSummary
	token   string // Latest issued fetch; other results are stale
	loading bool
	err     error

	sort      heatmap.SortOrder
	randomize bool

	cursor  grid.Cell
	student int // Index into summary.Totals, -1 for none

	status status

	width  int
	height int
}

// NewHeatmap creates the heatmap model. The first fetch starts in Init.
func NewHeatmap(ctx context.Context, opts HeatmapOptions) HeatmapModel {
	if opts.Banding == (heatmap.Banding{}) {
		opts.Banding = heatmap.DefaultBanding()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Now().UnixNano()))
	}
	order := opts.Build.Sort
	if order == "" {
		order = heatmap.SortByTotal
	}

	return HeatmapModel{
		ctx:       ctx,
		opts:      opts,
		styles:    loadStyles(opts.Theme),
		log:       newEventLogger(opts.Logger, "heatmap"),
		rng:       rng,
		token:     commands.NewToken(),
		loading:   true,
		sort:      order,
		randomize: opts.Build.RandomizeColors,
		student:   -1,
	}
}

// Init starts the first fetch.
func (m HeatmapModel) Init() tea.Cmd {
	m.log.fetchStart(m.token)
	return commands.LoadSchedule(m.ctx, m.token, m.opts.Fetcher, m.buildOptions())
}

// Summary returns the summary on screen, nil before the first load.
func (m HeatmapModel) Summary() *summary.ScheduleSummary {
	return m.summary
}

func (m HeatmapModel) buildOptions() summary.BuildOptions {
	opts := m.opts.Build
	opts.Sort = m.sort
	opts.RandomizeColors = m.randomize
	// The fetch runs off the event loop, so it gets its own source.
	opts.Rand = rand.New(rand.NewSource(m.rng.Int63()))
	if opts.Now == nil {
		opts.Now = m.opts.Now
	}
	return opts
}

// Update handles messages and updates the model.
func (m HeatmapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case commands.ScheduleLoadedMsg:
		if msg.Token != m.token {
			m.log.fetchStale(msg.Token, m.token)
			return m, nil
		}
		m.log.fetchDone(msg.Token, msg.Summary, msg.Err)
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.summary = msg.Summary
			if m.student >= len(m.summary.Totals) {
				m.student = -1
			}
		}
		return m, nil

	case commands.CopiedMsg:
		if msg.Err != nil {
			cmd := m.status.set(statusError, msg.Err.Error())
			return m, cmd
		}
		cmd := m.status.set(statusSuccess, fmt.Sprintf("Copied %s to clipboard", msg.What))
		return m, cmd

	case commands.ClearStatusMsg:
		m.status.clear(msg.Seq)
		return m, nil
	}

	return m, nil
}

func (m HeatmapModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.log.key(msg)

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		if m.student >= 0 {
			m.student = -1
			return m, nil
		}
		return m, tea.Quit

	case "r":
		return m.refresh()

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "tab":
		m.cycleStudent(1)
	case "shift+tab":
		m.cycleStudent(-1)

	case "s":
		if m.sort == heatmap.SortByTotal {
			m.sort = heatmap.SortByName
		} else {
			m.sort = heatmap.SortByTotal
		}
		m.resort()
		cmd := m.status.set(statusInfo, "Sorted by "+string(m.sort))
		return m, cmd

	case "c":
		// Toggles between shuffled colors and the first-seen assignment.
		m.randomize = !m.randomize
		if m.summary != nil {
			m.summary.Colors = heatmap.NewColorAssigner(m.rng).Assign(m.summary.Table.Names(), m.randomize)
		}
		text := "Colors shuffled"
		if !m.randomize {
			text = "Colors reset"
		}
		cmd := m.status.set(statusInfo, text)
		return m, cmd

	case "y":
		if m.summary == nil {
			return m, nil
		}
		return m, commands.Copy("summary", m.summary.Text())

	case "e":
		return m.exportStudent()
	}

	return m, nil
}

// refresh issues a new fetch. Any fetch still running becomes stale.
func (m HeatmapModel) refresh() (tea.Model, tea.Cmd) {
	m.token = commands.NewToken()
	m.loading = true
	m.log.fetchStart(m.token)
	return m, commands.LoadSchedule(m.ctx, m.token, m.opts.Fetcher, m.buildOptions())
}

// resort reorders the totals in place, keeping the highlighted student.
func (m *HeatmapModel) resort() {
	if m.summary == nil {
		return
	}
	name := m.selectedName()
	m.summary.Totals = heatmap.StudentTotals(m.summary.Table, m.sort)

	m.student = -1
	for i, st := range m.summary.Totals {
		if st.Name == name && name != "" {
			m.student = i
		}
	}
}

func (m *HeatmapModel) cycleStudent(delta int) {
	if m.summary == nil || len(m.summary.Totals) == 0 {
		return
	}
	n := len(m.summary.Totals)
	// -1 (none) takes part in the cycle.
	m.student = (m.student+1+delta+n+1)%(n+1) - 1
}

func (m HeatmapModel) selectedName() string {
	if m.summary == nil || m.student < 0 || m.student >= len(m.summary.Totals) {
		return ""
	}
	return m.summary.Totals[m.student].Name
}

func (m HeatmapModel) exportStudent() (tea.Model, tea.Cmd) {
	name := m.selectedName()
	if name == "" {
		cmd := m.status.set(statusWarning, "Select a student with tab first")
		return m, cmd
	}
	now := m.opts.Now()
	text := calendar.Render(m.summary.Table.CellsFor(name), calendar.Options{
		Name:    "Lab schedule: " + name,
		Summary: "Lab time: " + name,
		Week:    now,
		Now:     now,
	})
	return m, commands.Copy(name+"'s calendar", text)
}

func (m *HeatmapModel) moveCursor(dDay, dSlot int) {
	day := min(max(int(m.cursor.Day)+dDay, 0), grid.NumDays-1)
	slot := min(max(int(m.cursor.Slot)+dSlot, 0), grid.NumSlots-1)
	m.cursor = grid.Cell{Day: grid.Weekday(day), Slot: grid.TimeSlot(slot)}
}

// handleMouse moves the cursor with the pointer so hovering shows the
// tooltip.
func (m HeatmapModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c, onGrid := m.gridLayout().CellAt(msg.X, msg.Y)
	if msg.Action != tea.MouseActionMotion {
		m.log.mouse(msg, c, onGrid)
	}
	if onGrid && (msg.Action == tea.MouseActionMotion || msg.Action == tea.MouseActionPress) {
		m.cursor = c
	}
	return m, nil
}
