package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmelab/labgrid/internal/config"
	"github.com/cosmelab/labgrid/internal/db"
	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/logging"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config  *config.Config
	root    *cobra.Command
	debug   bool // Enable debug logging
	noColor bool

	logger *zap.Logger
	store  *db.SQLite // Opened on first use

	in  io.Reader
	out io.Writer
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config) *App {
	a := &App{
		config: cfg,
		logger: zap.NewNop(),
		in:     os.Stdin,
		out:    os.Stdout,
	}

	a.root = &cobra.Command{
		Use:   "labgrid",
		Short: "Lab availability poll and schedule heatmap",
		Long: `labgrid collects weekly lab availability and shows when people overlap.

Students mark the hours they can be in the lab on a weekday × hour grid
and submit it. The heatmap shows how many people are available in each
slot, per-student totals, and optional suggestions for lab sessions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPoll(cmd.Context())
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+logging.DebugLogPath+")")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.pollCmd())
	a.root.AddCommand(a.heatmapCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.logCmd())
	a.root.AddCommand(a.dashboardCmd())
	a.root.AddCommand(a.visitorsCmd())

	return a
}

func (a *App) setup() error {
	if a.noColor {
		DisableColor()
	}
	logger, err := logging.New(a.debug, "")
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "labgrid %s (commit: %s)\n", Version, Commit)
		},
	}
}

// openStore opens the local database once per run.
func (a *App) openStore() (*db.SQLite, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.config.Storage.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// client creates an endpoint client for url with the configured timeout
// and throttling.
func (a *App) client(url string) (*endpoint.Client, error) {
	timeout, err := a.config.Endpoint.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	c, err := endpoint.New(url,
		endpoint.WithTimeout(timeout),
		endpoint.WithRequestsPerMinute(a.config.Endpoint.RequestsPerMinute),
		endpoint.WithLogger(a.logger.Named("endpoint")),
	)
	if errors.Is(err, endpoint.ErrNoEndpoint) {
		return nil, fmt.Errorf("%w (set [endpoint] url in %s or LABGRID_ENDPOINT_URL)", err, config.DefaultConfigPath())
	}
	return c, err
}

// logClient is the client for the lab log, which may live at its own URL.
func (a *App) logClient() (*endpoint.Client, error) {
	url := a.config.Endpoint.LogURL
	if url == "" {
		url = a.config.Endpoint.URL
	}
	return a.client(url)
}

// Execute runs the CLI application. Cancelling ctx stops network calls
// and running TUI programs.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	logging.Sync(a.logger)
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
