package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/summary"
	"github.com/cosmelab/labgrid/internal/tui"
)

// keepSnapshots is how many fetched schedules stay cached for offline use.
const keepSnapshots = 10

func (a *App) heatmapCmd() *cobra.Command {
	var (
		model    string
		insight  bool
		suggest  bool
		offline  bool
		plain    bool
		shuffle  bool
		sortFlag string
	)

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show how many students are available in each slot",
		Long: `Display the submitted availability as a heatmap.

Each cell shows how many people are available at that hour. Hover a cell
or move the cursor onto it to see who. Per-student totals are listed
under the grid.

With --plain, or when stdout is not a terminal, the heatmap is printed
instead of opening the interactive view. --insight and --suggest ask the
configured LLM for advice on when to hold lab sessions.

Example:
  labgrid heatmap
  labgrid heatmap --plain --insight
  labgrid heatmap --offline`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			order, err := heatmap.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			banding, err := a.banding()
			if err != nil {
				return err
			}
			opts, err := a.buildOptions()
			if err != nil {
				return err
			}
			opts.Sort = order
			opts.RandomizeColors = opts.RandomizeColors || shuffle
			opts.Offline = offline
			opts.IncludeInsight = insight
			opts.SuggestSessions = suggest
			if model != "" {
				opts.Model = model
			}

			fetcher, err := a.scheduleFetcher(offline)
			if err != nil {
				return err
			}

			if plain || !isTerminal(os.Stdout) {
				s, err := summary.BuildScheduleSummary(ctx, fetcher, opts)
				if err != nil {
					return fmt.Errorf("building schedule summary: %w", err)
				}
				PrintSchedule(a.out, s, banding, time.Now())
				return nil
			}

			return tui.RunHeatmap(ctx, tui.HeatmapOptions{
				Fetcher: fetcher,
				Build:   opts,
				Banding: banding,
				Theme:   a.config.UI.Theme,
				Logger:  a.logger,
			})
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "LLM model to use (default from config)")
	cmd.Flags().BoolVar(&insight, "insight", false, "Ask the LLM for a short insight")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Ask the LLM to suggest lab sessions")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the last cached schedule without fetching")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the heatmap instead of opening the interactive view")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Randomize student colors")
	cmd.Flags().StringVar(&sortFlag, "sort", a.config.Heatmap.Sort, "Sort students by 'total' or 'name'")
	return cmd
}

// banding builds the density bands from the configured thresholds.
func (a *App) banding() (heatmap.Banding, error) {
	t := a.config.Heatmap.Thresholds
	if len(t) != 3 {
		return heatmap.DefaultBanding(), nil
	}
	return heatmap.NewBanding(t[0], t[1], t[2])
}

// buildOptions returns the summary options shared by the schedule
// commands, with the local store as snapshot cache.
func (a *App) buildOptions() (summary.BuildOptions, error) {
	store, err := a.openStore()
	if err != nil {
		return summary.BuildOptions{}, err
	}
	order, err := heatmap.ParseSortOrder(a.config.Heatmap.Sort)
	if err != nil {
		return summary.BuildOptions{}, err
	}
	return summary.BuildOptions{
		Options: summary.Options{
			FirstNameOnly:   a.config.Heatmap.FirstNameOnly,
			Sort:            order,
			RandomizeColors: a.config.Heatmap.RandomizeColors,
			BlockLength:     a.config.Poll.BlockLength,
		},
		Snapshots:     store,
		KeepSnapshots: keepSnapshots,
		Provider:      a.config.LLM.Provider,
		Model:         a.config.LLM.Model,
		BaseURL:       a.config.LLM.BaseURL,
		Logger:        a.logger.Named("llm"),
	}, nil
}

// scheduleFetcher returns the endpoint client, or nil when working from
// the cache only. Without a configured URL the cache is used.
func (a *App) scheduleFetcher(offline bool) (summary.Fetcher, error) {
	if offline || a.config.Endpoint.URL == "" {
		return nil, nil
	}
	client, err := a.client(a.config.Endpoint.URL)
	if err != nil {
		return nil, err
	}
	return client, nil
}
