package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/summary"
)

// eventLogger writes TUI events at debug level. The zero value is unusable;
// use newEventLogger.
type eventLogger struct {
	l *zap.Logger
}

func newEventLogger(l *zap.Logger, screen string) eventLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return eventLogger{l: l.Named("tui").With(zap.String("screen", screen))}
}

func (e eventLogger) key(msg tea.KeyMsg) {
	e.l.Debug("KEY_PRESS", zap.String("key", msg.String()))
}

func (e eventLogger) mouse(msg tea.MouseMsg, c grid.Cell, onGrid bool) {
	fields := []zap.Field{
		zap.String("event", msg.String()),
		zap.Int("x", msg.X),
		zap.Int("y", msg.Y),
	}
	if onGrid {
		fields = append(fields, zap.String("cell", c.Key()))
	}
	e.l.Debug("MOUSE", fields...)
}

func (e eventLogger) drag(from, to grid.DragMode, c grid.Cell) {
	if from == to {
		return
	}
	e.l.Debug("DRAG",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("cell", c.Key()),
	)
}

func (e eventLogger) selection(state grid.SelectionState) {
	e.l.Debug("SELECTION",
		zap.Int("size", state.Size),
		zap.Bool("has_block", state.HasBlock),
	)
}

func (e eventLogger) fetchStart(token string) {
	e.l.Debug("FETCH_START", zap.String("token", token))
}

func (e eventLogger) fetchStale(token, latest string) {
	e.l.Debug("FETCH_STALE", zap.String("token", token), zap.String("latest", latest))
}

func (e eventLogger) fetchDone(token string, s *summary.ScheduleSummary, err error) {
	if err != nil {
		e.l.Debug("FETCH_FAILED", zap.String("token", token), zap.Error(err))
		return
	}
	e.l.Debug("FETCH_DONE",
		zap.String("token", token),
		zap.Int("rows", s.Rows),
		zap.Int("dropped", s.Table.Dropped),
		zap.Bool("offline", s.Offline),
	)
}

func (e eventLogger) submit(cells int, err error) {
	if err != nil {
		e.l.Debug("SUBMIT_FAILED", zap.Int("cells", cells), zap.Error(err))
		return
	}
	e.l.Debug("SUBMIT_DONE", zap.Int("cells", cells))
}
