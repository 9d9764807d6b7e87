// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/poll"
	"github.com/cosmelab/labgrid/internal/summary"
)

// ClearStatusMsg clears the status set with the same sequence number.
type ClearStatusMsg struct {
	Seq int
}

// ScheduleLoadedMsg carries the result of one schedule fetch. Token
// identifies the request so stale responses can be dropped.
type ScheduleLoadedMsg struct {
	Token   string
	Summary *summary.ScheduleSummary
	Err     error
}

// SubmittedMsg carries the result of an availability submission.
type SubmittedMsg struct {
	Result *poll.Result
	Err    error
}

// IdentityMsg carries the signed-in identity used to prefill the form.
type IdentityMsg struct {
	Identity endpoint.Identity
	Err      error
}

// CopiedMsg is sent after text was copied to the clipboard.
type CopiedMsg struct {
	What string
	Err  error
}

// IdentitySource resolves the signed-in user.
type IdentitySource interface {
	GetUserEmail(ctx context.Context) (endpoint.Identity, error)
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// NewToken returns a fresh request token.
func NewToken() string {
	return uuid.NewString()
}

// LoadSchedule fetches and summarizes the schedule.
func LoadSchedule(ctx context.Context, token string, fetcher summary.Fetcher, opts summary.BuildOptions) tea.Cmd {
	return func() tea.Msg {
		s, err := summary.BuildScheduleSummary(ctx, fetcher, opts)
		return ScheduleLoadedMsg{Token: token, Summary: s, Err: err}
	}
}

// Submit sends the selected cells through the session. The cells are a
// snapshot taken by the caller so the running command never shares the
// live selection with the event loop.
func Submit(ctx context.Context, session *poll.Session, name, email string, cells []grid.Cell) tea.Cmd {
	sel := grid.NewSelection(grid.DefaultBlockLength)
	for _, c := range cells {
		sel.Select(c)
	}
	return func() tea.Msg {
		if session == nil {
			return SubmittedMsg{Err: fmt.Errorf("no submission endpoint configured")}
		}
		res, err := session.Submit(ctx, name, email, sel)
		return SubmittedMsg{Result: res, Err: err}
	}
}

// LoadIdentity asks src for the signed-in identity.
func LoadIdentity(ctx context.Context, src IdentitySource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		id, err := src.GetUserEmail(ctx)
		return IdentityMsg{Identity: id, Err: err}
	}
}

// Copy writes text to the system clipboard.
func Copy(what, text string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return CopiedMsg{What: what, Err: fmt.Errorf("copying %s: %w", what, err)}
		}
		return CopiedMsg{What: what}
	}
}

// ClearStatusAfter emits ClearStatusMsg{Seq: seq} after d.
func ClearStatusAfter(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
