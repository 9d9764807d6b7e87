package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/visitor"
)

func (a *App) visitorsCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "visitors",
		Short: "Show the site visitor count",
		Long: `Print the visitor count from the configured provider.

Providers:
  estimate  projected from the launch date and a daily average (default)
  local     counter in the local database, incremented on every call
  countapi  hit counter service at [visitor] counter_url

Example:
  labgrid visitors
  labgrid visitors --provider local`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.visitorProvider(provider)
			if err != nil {
				return err
			}
			n, err := p.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("counting visitors: %w", err)
			}
			fmt.Fprintf(a.out, "Visitors: %s %s\n", formatStats(visitor.FormatCount(n)), formatMuted("("+p.Name()+")"))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to use (default from config)")
	return cmd
}

func (a *App) visitorProvider(name string) (visitor.Provider, error) {
	cfg := a.config.Visitor
	if name == "" {
		name = cfg.Provider
	}

	launch, err := cfg.Launch()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	est := visitor.DefaultEstimateConfig()
	est.LaunchDate = launch
	est.BaseCount = cfg.BaseCount
	est.DailyAverage = cfg.DailyAverage
	est.CacheTTL = ttl

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return visitor.NewProvider(name, visitor.Deps{
		Estimate: est,
		Store:    store,
		URL:      cfg.CounterURL,
	})
}
