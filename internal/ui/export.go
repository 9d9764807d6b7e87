package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/calendar"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/summary"
)

// ErrUnknownStudent is returned when the requested name has no availability.
var ErrUnknownStudent = errors.New("no availability submitted under that name")

// ExportOptions configures an ICS export.
type ExportOptions struct {
	Student  string
	Location string
	Weeks    int
	Now      time.Time
}

func (a *App) exportCmd() *cobra.Command {
	var (
		opts    ExportOptions
		outPath string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a student's lab hours as an .ics calendar",
		Long: `Write the hours a student marked as available as weekly recurring
events in iCalendar format, ready to import into any calendar app.

The student name is matched case-insensitively against the submitted
names.

Example:
  labgrid export --student "Jane Doe" --out jane.ics
  labgrid export --student Jane --weeks 10 > jane.ics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			build, err := a.buildOptions()
			if err != nil {
				return err
			}
			build.Offline = offline
			fetcher, err := a.scheduleFetcher(offline)
			if err != nil {
				return err
			}
			opts.Now = time.Now()

			w := a.out
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			n, err := ExportStudent(ctx, w, fetcher, build, opts)
			if err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(os.Stderr, "Wrote %d weekly event(s) to %s\n", n, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Student, "student", "", "Student name (required)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "Location added to every event")
	cmd.Flags().IntVar(&opts.Weeks, "weeks", 0, "Number of weeks to repeat (0 repeats forever)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the last cached schedule without fetching")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

// ExportStudent builds the schedule and writes the student's cells as an
// ICS calendar to w. It returns the number of events written.
func ExportStudent(ctx context.Context, w io.Writer, fetcher summary.Fetcher, build summary.BuildOptions, opts ExportOptions) (int, error) {
	build.IncludeInsight = false
	build.SuggestSessions = false

	s, err := summary.BuildScheduleSummary(ctx, fetcher, build)
	if err != nil {
		return 0, fmt.Errorf("building schedule summary: %w", err)
	}

	name, ok := matchStudent(s.Table, opts.Student)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStudent, opts.Student)
	}

	cells := s.Table.CellsFor(name)
	err = calendar.Write(w, cells, calendar.Options{
		Name:     "Lab schedule: " + name,
		Summary:  "Lab time: " + name,
		Location: opts.Location,
		Week:     opts.Now,
		Count:    opts.Weeks,
		Now:      opts.Now,
	})
	if err != nil {
		return 0, fmt.Errorf("writing calendar: %w", err)
	}
	return len(cells), nil
}

// matchStudent finds name among the submitters, ignoring case and
// surrounding space.
func matchStudent(t *heatmap.Table, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, n := range t.Names() {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}
