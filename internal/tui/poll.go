// Package tui provides the terminal user interface for labgrid: the
// availability poll grid and the schedule heatmap.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cosmelab/labgrid/internal/calendar"
	"github.com/cosmelab/labgrid/internal/dateutil"
	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/poll"
	"github.com/cosmelab/labgrid/internal/tui/commands"
	"github.com/cosmelab/labgrid/internal/tui/input"
	"github.com/cosmelab/labgrid/internal/tui/view"
)

const (
	fieldName  = "name"
	fieldEmail = "email"
)

// Messages shown after a submission attempt.
const (
	submitErrorText = "Error submitting. Please try again or contact me."
	submittingText  = "Submitting..."
)

// PollOptions configures the availability poll.
type PollOptions struct {
	Session     *poll.Session
	Identity    commands.IdentitySource // Prefills the form; optional
	EmailSuffix string
	BlockLength int
	Theme       string
	Logger      *zap.Logger
	Now         func() time.Time
}

// PollModel is the availability poll: a name/email form above the
// weekday × hour grid.
type PollModel struct {
	ctx  context.Context
	opts PollOptions

	styles *Styles
	log    eventLogger

	form      *input.Form
	validator poll.Validator
	selection *grid.Selection
	drag      *grid.DragController
	selState  *grid.SelectionState // Updated by the selection subscription

	cursor       grid.Cell
	keyDragging  bool
	pendingClear bool

	submitting bool
	submitted  bool
	sent       int // Cells in the accepted submission
	notice     string

	status status

	width  int
	height int
}

// NewPoll creates the poll model. ctx bounds every request it issues.
func NewPoll(ctx context.Context, opts PollOptions) PollModel {
	if opts.BlockLength <= 0 {
		opts.BlockLength = grid.DefaultBlockLength
	}
	if opts.EmailSuffix == "" {
		opts.EmailSuffix = poll.DefaultEmailSuffix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	styles := loadStyles(opts.Theme)
	log := newEventLogger(opts.Logger, "poll")

	sel := grid.NewSelection(opts.BlockLength)
	state := &grid.SelectionState{}
	sel.Subscribe(func(s grid.SelectionState) {
		*state = s
		log.selection(s)
	})

	form := input.NewForm(styles.FormStyles(),
		input.Field{Key: fieldName, Label: "Name", Placeholder: "Your full name", CharLimit: 80, Width: 32},
		input.Field{Key: fieldEmail, Label: "Email", Placeholder: "you" + opts.EmailSuffix, CharLimit: 120, Width: 32},
	)
	form.Focus(0)

	return PollModel{
		ctx:       ctx,
		opts:      opts,
		styles:    styles,
		log:       log,
		form:      form,
		validator: poll.NewValidator(opts.EmailSuffix),
		selection: sel,
		drag:      grid.NewDragController(sel),
		selState:  state,
	}
}

// Init prefills the form from the signed-in identity when available.
func (m PollModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, commands.LoadIdentity(m.ctx, m.opts.Identity))
}

// Selection returns the live selection.
func (m PollModel) Selection() *grid.Selection {
	return m.selection
}

// Submitted reports whether the availability was sent.
func (m PollModel) Submitted() bool {
	return m.submitted
}

// SentHours returns the number of hours in the accepted submission. It can
// differ from the live selection when the submission was refused.
func (m PollModel) SentHours() int {
	return m.sent
}

// readOnly reports whether the grid must not change: a submission is in
// flight or was accepted.
func (m PollModel) readOnly() bool {
	return m.submitting || m.submitted
}

// Update handles messages and updates the model.
func (m PollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case commands.IdentityMsg:
		if msg.Err != nil {
			m.log.l.Debug("identity lookup failed", zap.Error(msg.Err))
			return m, nil
		}
		if m.form.Value(fieldName) == "" {
			m.form.SetValue(fieldName, msg.Identity.Name)
		}
		if m.form.Value(fieldEmail) == "" {
			m.form.SetValue(fieldEmail, msg.Identity.Email)
		}
		return m, nil

	case commands.SubmittedMsg:
		return m.handleSubmitted(msg)

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

	return m, m.form.Update(msg)
}

func (m PollModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.log.key(msg)

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.form.Next()
	case "shift+tab":
		return m, m.form.Prev()
	case "ctrl+s":
		return m.submit()
	}

	if m.form.Focused() != input.NoFocus {
		switch msg.String() {
		case "enter":
			return m, m.form.Next()
		case "esc":
			m.form.Focus(input.NoFocus)
			return m, nil
		}
		return m, m.form.Update(msg)
	}

	return m.handleGridKey(msg)
}

// handleGridKey handles keys while the grid has focus.
func (m PollModel) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.pendingClear {
		m.pendingClear = false
		if key == "c" {
			m.selection.Clear()
			cmd := m.status.set(statusInfo, "Selections cleared")
			return m, cmd
		}
		m.status.dismiss()
	}

	if m.keyDragging && !isExtendKey(key) {
		m.endDrag()
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "shift+up", "K":
		m.extend(0, -1)
	case "shift+down", "J":
		m.extend(0, 1)
	case "shift+left", "H":
		m.extend(-1, 0)
	case "shift+right", "L":
		m.extend(1, 0)

	case " ", "x":
		if !m.readOnly() {
			m.press(m.cursor)
			m.endDrag()
		}

	case "c":
		if m.readOnly() || m.selection.Size() == 0 {
			return m, nil
		}
		m.pendingClear = true
		m.status.pin(statusWarning, "Clear all selections? Press c again to confirm")

	case "enter":
		return m.submit()

	case "y":
		return m.copyCalendar()

	case "i", "/":
		return m, m.form.Focus(0)
	}

	return m, nil
}

func isExtendKey(key string) bool {
	switch key {
	case "shift+up", "shift+down", "shift+left", "shift+right", "K", "J", "H", "L":
		return true
	}
	return false
}

func (m *PollModel) moveCursor(dDay, dSlot int) {
	day := min(max(int(m.cursor.Day)+dDay, 0), grid.NumDays-1)
	slot := min(max(int(m.cursor.Slot)+dSlot, 0), grid.NumSlots-1)
	m.cursor = grid.Cell{Day: grid.Weekday(day), Slot: grid.TimeSlot(slot)}
}

// extend is the keyboard drag: the first step presses the cursor cell,
// later steps enter the cells the cursor moves onto.
func (m *PollModel) extend(dDay, dSlot int) {
	if m.readOnly() {
		m.moveCursor(dDay, dSlot)
		return
	}
	if !m.drag.Dragging() {
		m.press(m.cursor)
		m.keyDragging = true
	}
	m.moveCursor(dDay, dSlot)
	m.drag.Enter(m.cursor)
}

func (m *PollModel) press(c grid.Cell) {
	from := m.drag.Mode()
	to := m.drag.Down(c)
	m.log.drag(from, to, c)
}

func (m *PollModel) endDrag() {
	if m.drag.Dragging() {
		m.log.drag(m.drag.Mode(), grid.DragIdle, m.cursor)
	}
	m.drag.Up()
	m.keyDragging = false
}

func (m PollModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c, onGrid := m.gridLayout().CellAt(msg.X, msg.Y)
	m.log.mouse(msg, c, onGrid)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !onGrid {
			return m, nil
		}
		m.form.Focus(input.NoFocus)
		m.pendingClear = false
		m.cursor = c
		if !m.readOnly() {
			m.press(c)
		}

	case tea.MouseActionMotion:
		if m.drag.Dragging() && onGrid {
			m.cursor = c
			m.drag.Enter(c)
		}

	case tea.MouseActionRelease:
		m.endDrag()
	}
	return m, nil
}

func (m PollModel) submit() (tea.Model, tea.Cmd) {
	if m.submitting || m.submitted {
		return m, nil
	}
	m.endDrag()

	name, email := m.form.Value(fieldName), m.form.Value(fieldEmail)
	if err := m.validator.Validate(name, email, m.selection); err != nil {
		cmd := m.status.set(statusError, err.Error())
		return m, cmd
	}

	m.submitting = true
	m.status.pin(statusInfo, submittingText)
	return m, commands.Submit(m.ctx, m.opts.Session, name, email, m.selection.Cells())
}

func (m PollModel) handleSubmitted(msg commands.SubmittedMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	sent := 0
	if msg.Result != nil && msg.Result.Submission != nil {
		sent = len(msg.Result.Submission.Selections)
	}
	m.log.submit(sent, msg.Err)

	if msg.Result == nil {
		switch {
		case errors.Is(msg.Err, poll.ErrAlreadySubmitted):
			m.submitted = true
			m.form.Lock()
			m.status.pin(statusWarning, "Your availability was already submitted.")
			return m, nil
		case isValidationError(msg.Err):
			cmd := m.status.set(statusError, msg.Err.Error())
			return m, cmd
		}
		m.status.pin(statusError, submitErrorText)
		return m, nil
	}

	if msg.Err != nil {
		// Sent, but the local receipt could not be written.
		m.log.l.Warn("receipt not saved", zap.Error(msg.Err))
	}

	m.submitted = true
	m.sent = sent
	m.form.Lock()
	m.status.pin(statusSuccess, fmt.Sprintf("Thank you, %s! Your availability has been submitted.", msg.Result.Submission.StudentName))
	if prev := msg.Result.Previous; prev != nil {
		m.notice = fmt.Sprintf("Note: you already submitted on %s. This selection was sent as well.",
			prev.SubmittedAt.Local().Format(dateutil.DateLayout))
	}
	return m, nil
}

func isValidationError(err error) bool {
	for _, target := range []error{poll.ErrNameRequired, poll.ErrEmailRequired, poll.ErrEmailDomain, poll.ErrNoSelection} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (m PollModel) copyCalendar() (tea.Model, tea.Cmd) {
	cells := m.selection.Cells()
	if len(cells) == 0 {
		cmd := m.status.set(statusWarning, "Nothing selected to export")
		return m, cmd
	}
	now := m.opts.Now()
	name := m.form.Value(fieldName)
	text := calendar.Render(cells, calendar.Options{
		Name:    "Lab availability",
		Summary: labSummary(name),
		Week:    now,
		Now:     now,
	})
	return m, commands.Copy("calendar", text)
}

func labSummary(name string) string {
	if name == "" {
		return "Lab time"
	}
	return "Lab time: " + name
}

// gridLayout places the grid below the header, the form, one blank line
// and the day header row.
func (m PollModel) gridLayout() view.GridLayout {
	return view.NewGridLayout(pollHeaderLines + m.form.Len() + 2)
}
