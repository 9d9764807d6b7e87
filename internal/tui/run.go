package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// RunPoll runs the availability poll until the user quits and returns the
// final model.
func RunPoll(ctx context.Context, opts PollOptions) (PollModel, error) {
	p := tea.NewProgram(NewPoll(ctx, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	final, err := p.Run()
	m, _ := final.(PollModel)
	return m, err
}

// RunHeatmap runs the schedule heatmap. All mouse motion is reported so
// hovering a cell shows its tooltip.
func RunHeatmap(ctx context.Context, opts HeatmapOptions) error {
	p := tea.NewProgram(NewHeatmap(ctx, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	_, err := p.Run()
	return err
}
