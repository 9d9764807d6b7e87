package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/lablog"
)

// LogSource loads the signed-in user's lab logs.
type LogSource interface {
	GetMyLogs(ctx context.Context) (*endpoint.LogsResponse, error)
}

func (a *App) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your lab hours and recent visits",
		Long: `Display statistics from your lab logs: total hours, number of visits,
average visit length, hours per project and your most recent visits.

Example:
  labgrid dashboard`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.logClient()
			if err != nil {
				return err
			}
			return ShowDashboard(cmd.Context(), a.out, client)
		},
	}
}

// ShowDashboard loads the logs and prints their statistics.
func ShowDashboard(ctx context.Context, w io.Writer, src LogSource) error {
	resp, err := src.GetMyLogs(ctx)
	if err != nil {
		return fmt.Errorf("loading logs: %w", err)
	}
	PrintDashboard(w, resp.Email, lablog.ComputeStats(resp.Logs))
	return nil
}
