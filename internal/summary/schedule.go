// Package summary builds the schedule summary shared by the heatmap TUI and
// the CLI commands.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cosmelab/labgrid/internal/db"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/llm"
	"github.com/cosmelab/labgrid/internal/scheduler"
	"go.uber.org/zap"
)

// DefaultBestSlots is how many of the most populated cells a summary lists.
const DefaultBestSlots = 5

// ErrNoSnapshot is returned in offline mode when nothing was cached yet.
var ErrNoSnapshot = errors.New("no cached schedule available")

// Fetcher loads the submitted availability rows.
type Fetcher interface {
	FetchSchedule(ctx context.Context) ([]heatmap.Row, error)
}

// Snapshots caches fetched rows for offline use.
type Snapshots interface {
	SaveSnapshot(ctx context.Context, rows []byte, at time.Time, keep int) error
	LatestSnapshot(ctx context.Context) (*db.Snapshot, error)
}

// ScheduleSummary holds the aggregated schedule and optional insight.
type ScheduleSummary struct {
	Table     *heatmap.Table
	Totals    []heatmap.StudentTotal
	Colors    map[string]string // Name to palette color
	Best      []heatmap.SlotCount
	Windows   []scheduler.Window // Best non-overlapping session windows
	Rows      int
	FetchedAt time.Time

	// Offline is set when the table came from a cached snapshot. FetchErr
	// holds the failure that forced the fallback, if any.
	Offline  bool
	FetchErr error

	Insight  string
	Sessions []llm.Session
	Warnings []string
}

// Options configures aggregation and presentation.
type Options struct {
	FirstNameOnly   bool
	Sort            heatmap.SortOrder
	RandomizeColors bool
	Rand            *rand.Rand
	BestSlots       int
	BlockLength     int // Session length for windows and suggestions
	MaxWindows      int
}

// BuildOptions configures the endpoint-backed summary builder.
type BuildOptions struct {
	Options

	Snapshots     Snapshots
	KeepSnapshots int
	Offline       bool // Skip the endpoint and use the newest snapshot
	Now           func() time.Time

	IncludeInsight  bool
	SuggestSessions bool
	Client          llm.Client // Used as is when set
	Provider        string
	Model           string
	BaseURL         string
	Logger          *zap.Logger // Passed to the LLM client; may be nil
}

// Summarize aggregates rows into a summary.
func Summarize(rows []heatmap.Row, fetchedAt time.Time, opts Options) *ScheduleSummary {
	table := heatmap.Aggregate(rows, heatmap.AggregateOptions{FirstNameOnly: opts.FirstNameOnly})
	if opts.Sort == "" {
		opts.Sort = heatmap.SortByTotal
	}
	if opts.BestSlots <= 0 {
		opts.BestSlots = DefaultBestSlots
	}

	return &ScheduleSummary{
		Table:     table,
		Totals:    heatmap.StudentTotals(table, opts.Sort),
		Colors:    heatmap.NewColorAssigner(opts.Rand).Assign(table.Names(), opts.RandomizeColors),
		Best:      table.BestSlots(opts.BestSlots),
		Windows:   scheduler.New(opts.BlockLength).Suggest(table, opts.MaxWindows),
		Rows:      len(rows),
		FetchedAt: fetchedAt,
	}
}

// BuildScheduleSummary fetches the schedule, caches it, aggregates it and
// optionally adds LLM insight. When the fetch fails and a snapshot exists,
// the snapshot is used and the error is kept in FetchErr.
func BuildScheduleSummary(ctx context.Context, fetcher Fetcher, opts BuildOptions) (*ScheduleSummary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var (
		rows      []heatmap.Row
		fetchedAt time.Time
		offline   bool
		fetchErr  error
	)

	if !opts.Offline && fetcher != nil {
		var err error
		rows, err = fetcher.FetchSchedule(ctx)
		if err == nil {
			fetchedAt = now()
			if err := saveSnapshot(ctx, opts, rows, fetchedAt); err != nil {
				return nil, err
			}
		} else {
			fetchErr = err
		}
	}

	if opts.Offline || fetcher == nil || fetchErr != nil {
		snapRows, at, ok, err := loadSnapshot(ctx, opts.Snapshots)
		if err != nil {
			return nil, err
		}
		if !ok {
			if fetchErr != nil {
				return nil, fmt.Errorf("fetching schedule: %w", fetchErr)
			}
			return nil, ErrNoSnapshot
		}
		rows, fetchedAt, offline = snapRows, at, true
	}

	summary := Summarize(rows, fetchedAt, opts.Options)
	summary.Offline = offline
	summary.FetchErr = fetchErr

	if (opts.IncludeInsight || opts.SuggestSessions) && summary.Table.Total() > 0 {
		if err := addInsight(ctx, summary, opts); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func saveSnapshot(ctx context.Context, opts BuildOptions, rows []heatmap.Row, at time.Time) error {
	if opts.Snapshots == nil {
		return nil
	}
	if rows == nil {
		rows = []heatmap.Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := opts.Snapshots.SaveSnapshot(ctx, data, at, opts.KeepSnapshots); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, store Snapshots) ([]heatmap.Row, time.Time, bool, error) {
	if store == nil {
		return nil, time.Time{}, false, nil
	}
	snap, err := store.LatestSnapshot(ctx)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("loading snapshot: %w", err)
	}
	if snap == nil {
		return nil, time.Time{}, false, nil
	}
	var rows []heatmap.Row
	if err := json.Unmarshal(snap.Rows, &rows); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return rows, snap.FetchedAt, true, nil
}

func addInsight(ctx context.Context, summary *ScheduleSummary, opts BuildOptions) error {
	client := opts.Client
	if client == nil {
		if opts.Model == "" {
			return errors.New("model is required for insight")
		}
		var err error
		client, err = llm.NewClient(ctx, opts.Provider, opts.Model, opts.BaseURL, llm.WithLogger(opts.Logger))
		if err != nil {
			return fmt.Errorf("creating LLM client: %w", err)
		}
	}

	advisor := llm.NewAdvisor(client)
	req := llm.InsightRequest{
		Table:       summary.Table,
		Totals:      summary.Totals,
		BlockLength: opts.BlockLength,
	}

	if opts.IncludeInsight {
		text, err := advisor.Describe(ctx, req)
		if err != nil {
			return fmt.Errorf("describing schedule: %w", err)
		}
		summary.Insight = text
	}
	if opts.SuggestSessions {
		sessions, warnings, err := advisor.Suggest(ctx, req)
		if err != nil {
			return fmt.Errorf("suggesting sessions: %w", err)
		}
		summary.Sessions = sessions
		summary.Warnings = warnings
	}
	return nil
}
