package lablog

import (
	"sort"
	"time"

	"github.com/cosmelab/labgrid/internal/dateutil"
)

// RecentLimit caps the recent-visits list on the dashboard.
const RecentLimit = 20

// UnknownProject labels entries with no project.
const UnknownProject = "Unknown"

// ProjectHours is the time spent on one project.
type ProjectHours struct {
	Project string
	Hours   float64
}

// Stats summarizes a student's logs.
type Stats struct {
	TotalHours    float64
	TotalSessions int
	AverageHours  float64
	LastVisit     time.Time // zero when there are no dated logs
	Projects      []ProjectHours
	Recent        []Entry
}

// LastVisitLabel returns the last visit date for display, or "Never".
func (s Stats) LastVisitLabel() string {
	if s.LastVisit.IsZero() {
		return dateutil.NeverLabel
	}
	return s.LastVisit.Format("Jan 2, 2006")
}

// ComputeStats derives dashboard statistics. Projects are ordered by hours
// descending, ties by name; Recent holds up to RecentLimit entries, newest
// first.
func ComputeStats(logs []Entry) Stats {
	var s Stats
	s.TotalSessions = len(logs)

	byProject := make(map[string]float64)
	for _, l := range logs {
		h := float64(l.HoursWorked)
		s.TotalHours += h

		project := l.Project
		if project == "" {
			project = UnknownProject
		}
		byProject[project] += h

		if d, ok := dateutil.ParseLooseDate(l.Date); ok && d.After(s.LastVisit) {
			s.LastVisit = d
		}
	}
	if s.TotalSessions > 0 {
		s.AverageHours = s.TotalHours / float64(s.TotalSessions)
	}

	for p, h := range byProject {
		s.Projects = append(s.Projects, ProjectHours{Project: p, Hours: h})
	}
	sort.Slice(s.Projects, func(i, j int) bool {
		if s.Projects[i].Hours != s.Projects[j].Hours {
			return s.Projects[i].Hours > s.Projects[j].Hours
		}
		return s.Projects[i].Project < s.Projects[j].Project
	})

	s.Recent = RecentLogs(logs, RecentLimit)
	return s
}

// RecentLogs returns up to limit entries sorted by date, newest first.
// Entries with unparseable dates sort last.
func RecentLogs(logs []Entry, limit int) []Entry {
	sorted := append([]Entry(nil), logs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, _ := dateutil.ParseLooseDate(sorted[i].Date)
		dj, _ := dateutil.ParseLooseDate(sorted[j].Date)
		return di.After(dj)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
