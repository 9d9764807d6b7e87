package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/dateutil"
	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/lablog"
)

// LogService is the part of the endpoint the log command talks to.
type LogService interface {
	GetUserEmail(ctx context.Context) (endpoint.Identity, error)
	SubmitLog(ctx context.Context, e lablog.Entry) (*endpoint.LogResult, error)
}

// LogInput holds values given on the command line. Empty fields are
// prompted for.
type LogInput struct {
	Name            string
	Email           string
	Date            string
	TimeIn          string
	TimeOut         string
	Project         string
	Accomplishments string
}

func (a *App) logCmd() *cobra.Command {
	var in LogInput

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a lab visit",
		Long: `Submit a daily lab log: when you came in, when you left, the project
you worked on and what you accomplished.

Values not given as flags are asked for. Your name and email are filled
in from your signed-in account when the web app reports one. Dates can
be YYYY-MM-DD, "today" or a weekday name; times are HH:MM (24-hour), and
a time out earlier than the time in counts as past midnight.

Example:
  labgrid log
  labgrid log --in 09:00 --out 12:30 --project "Microscopy" --notes "Imaged slides"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.logClient()
			if err != nil {
				return err
			}

			reader := bufio.NewReader(a.in)
			entry, err := CollectLog(ctx, reader, a.out, client, in, a.projects(), time.Now())
			if err != nil {
				return err
			}
			return SubmitLog(ctx, a.out, client, entry)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Your email")
	cmd.Flags().StringVar(&in.Date, "date", "", "Visit date (YYYY-MM-DD, today, monday...)")
	cmd.Flags().StringVar(&in.TimeIn, "in", "", "Time in (HH:MM)")
	cmd.Flags().StringVar(&in.TimeOut, "out", "", "Time out (HH:MM)")
	cmd.Flags().StringVarP(&in.Project, "project", "p", "", "Project name or number from the list")
	cmd.Flags().StringVarP(&in.Accomplishments, "notes", "n", "", "What you accomplished")
	return cmd
}

func (a *App) projects() []string {
	if len(a.config.LabLog.Projects) > 0 {
		return a.config.LabLog.Projects
	}
	return lablog.DefaultProjects
}

// CollectLog fills a lab log entry from in, prompting on w for anything
// missing. The identity lookup only supplies defaults; its failure is
// reported and ignored.
func CollectLog(ctx context.Context, r *bufio.Reader, w io.Writer, svc LogService, in LogInput, projects []string, now time.Time) (lablog.Entry, error) {
	if in.Name == "" || in.Email == "" {
		id, err := svc.GetUserEmail(ctx)
		if err != nil {
			fmt.Fprintln(w, formatMuted(fmt.Sprintf("Could not look up your account: %v", err)))
		}
		in.Email = firstNonEmpty(in.Email, id.Email)
		in.Name = firstNonEmpty(in.Name, id.Name)
	}

	var e lablog.Entry
	e.Name = promptIfEmpty(r, w, "Name", in.Name)
	e.Email = promptIfEmpty(r, w, "Email", in.Email)
	e.TimeIn = promptIfEmpty(r, w, "Time in (HH:MM)", in.TimeIn)
	e.TimeOut = promptIfEmpty(r, w, "Time out (HH:MM)", in.TimeOut)

	date, err := dateutil.ParseRelativeDate(in.Date, now)
	if err != nil {
		return lablog.Entry{}, fmt.Errorf("date %q: %w", in.Date, err)
	}
	e.Date = date.Format(dateutil.DateLayout)

	project := in.Project
	if project == "" {
		printProjects(w, projects)
		project = promptValue(r, w, "Project", "")
	}
	e.Project = resolveProject(project, projects)
	if err := e.CheckProject(projects); err != nil {
		return lablog.Entry{}, err
	}

	e.Accomplishments = promptIfEmpty(r, w, "Accomplishments", in.Accomplishments)

	if err := e.Finalize(); err != nil {
		return lablog.Entry{}, err
	}
	return e, nil
}

// SubmitLog sends the entry and prints the confirmation.
func SubmitLog(ctx context.Context, w io.Writer, svc LogService, e lablog.Entry) error {
	result, err := svc.SubmitLog(ctx, e)
	if err != nil {
		return err
	}

	msg := result.Message
	if msg == "" {
		msg = "Lab log submitted successfully!"
	}
	hours := float64(result.HoursWorked)
	if hours == 0 {
		hours = float64(e.HoursWorked)
	}
	fmt.Fprintf(w, "%s %s on %s (%s)\n", formatStats(msg),
		lablog.FormatDuration(hours), e.Project, dateutil.FormatDisplayDate(e.Date))
	return nil
}

func printProjects(w io.Writer, projects []string) {
	fmt.Fprintln(w, "  Projects:")
	for i, p := range projects {
		fmt.Fprintf(w, "    %d. %s\n", i+1, p)
	}
}

// resolveProject accepts a 1-based index into projects or a name matched
// case-insensitively. Anything else is returned trimmed.
func resolveProject(s string, projects []string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(projects) {
		return projects[n-1]
	}
	for _, p := range projects {
		if strings.EqualFold(p, s) {
			return p
		}
	}
	return s
}

func promptIfEmpty(r *bufio.Reader, w io.Writer, label, value string) string {
	if value != "" {
		return value
	}
	return promptValue(r, w, label, "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
