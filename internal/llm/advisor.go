package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
)

const insightSystemPrompt = `You are a lab manager's scheduling assistant. Output ONLY the exact format shown - no markdown, no extra text. Be extremely concise.`

const insightPromptTemplate = `Analyze this week's lab availability and output EXACTLY this format (no markdown, no code blocks):

BEST WINDOW: [day and hour range with the most students]
COVERAGE: One sentence about which days are thin or crowded.
GAPS: One sentence naming students with few or no %d-hour blocks.

NEXT STEPS:
➜  First concrete session to schedule.
➜  Second concrete session to schedule.

Data Format:
- Each line is "Day Time: count (names)"
- Students: total hours each student marked

Availability (%d students, %d hour marks):
%s
Students:
%s
Rules:
- Only name days Monday-Friday and times 8:00 AM-6:00 PM
- Keep each line under 70 characters
- Output plain text only, no markdown formatting`

const sessionPromptTemplate = `You are a lab manager's scheduling assistant. Suggest up to %d lab sessions of %d consecutive hours that cover as many students as possible.

Availability (%d students):
%s
Rules:
- "day" must be one of Monday, Tuesday, Wednesday, Thursday, Friday
- "start" must be an hour label such as "9:00 AM" between 8:00 AM and 6:00 PM
- A session must fit before 7:00 PM
- Return JSON only (no markdown)

JSON schema:
{
  "sessions": [
    {"day": "string", "start": "string", "reason": "string"}
  ],
  "warnings": ["string"]
}`

// InsightRequest carries the aggregated schedule to the advisor.
type InsightRequest struct {
	Table       *heatmap.Table
	Totals      []heatmap.StudentTotal
	BlockLength int // Session length in hours
	MaxSessions int
}

// SessionResponse is the parsed LLM answer for session suggestions.
type SessionResponse struct {
	Sessions []SuggestedSession `json:"sessions"`
	Warnings []string           `json:"warnings"`
}

// SuggestedSession is one lab session proposed by the LLM.
type SuggestedSession struct {
	Day    string `json:"day"`
	Start  string `json:"start"`
	Reason string `json:"reason"`
}

// Session is a suggested session resolved onto the grid.
type Session struct {
	Cells  []grid.Cell
	Reason string
}

// Advisor asks an LLM for insight on when to hold lab sessions.
type Advisor struct {
	client Client
}

// NewAdvisor creates a new Advisor with the given LLM client.
func NewAdvisor(client Client) *Advisor {
	return &Advisor{client: client}
}

// Describe returns a short plain-text insight about the schedule.
func (a *Advisor) Describe(ctx context.Context, req InsightRequest) (string, error) {
	req = req.withDefaults()
	prompt := fmt.Sprintf(insightPromptTemplate,
		req.BlockLength,
		len(req.Totals),
		req.Table.Total(),
		formatAvailability(req.Table),
		formatTotals(req.Totals))

	return a.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: insightSystemPrompt},
		{Role: RoleUser, Content: prompt},
	})
}

// Suggest asks for concrete sessions and resolves them onto the grid.
// Suggestions naming cells outside the grid are skipped and reported as
// warnings.
func (a *Advisor) Suggest(ctx context.Context, req InsightRequest) ([]Session, []string, error) {
	req = req.withDefaults()
	prompt := fmt.Sprintf(sessionPromptTemplate,
		req.MaxSessions,
		req.BlockLength,
		len(req.Totals),
		formatAvailability(req.Table))

	var resp SessionResponse
	if err := a.client.ChatJSON(ctx, []Message{{Role: RoleUser, Content: prompt}}, &resp); err != nil {
		return nil, nil, fmt.Errorf("getting sessions from LLM: %w", err)
	}
	sessions, warnings := resp.ToSessions(req.BlockLength)
	if len(sessions) > req.MaxSessions {
		sessions = sessions[:req.MaxSessions]
	}
	return sessions, warnings, nil
}

func (r InsightRequest) withDefaults() InsightRequest {
	if r.Table == nil {
		r.Table = heatmap.NewTable()
	}
	if r.BlockLength <= 0 {
		r.BlockLength = grid.DefaultBlockLength
	}
	if r.MaxSessions <= 0 {
		r.MaxSessions = 3
	}
	return r
}

// ToSessions resolves suggested sessions to grid cells. Each session
// spans length consecutive slots starting at Start.
func (sr *SessionResponse) ToSessions(length int) ([]Session, []string) {
	warnings := append([]string(nil), sr.Warnings...)
	sessions := make([]Session, 0, len(sr.Sessions))

	for _, s := range sr.Sessions {
		start, ok := grid.Lookup(strings.TrimSpace(s.Day), strings.TrimSpace(s.Start))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipped session %s %s: not a lab hour", s.Day, s.Start))
			continue
		}
		if int(start.Slot)+length > grid.NumSlots {
			warnings = append(warnings, fmt.Sprintf("skipped session %s %s: runs past the last slot", s.Day, s.Start))
			continue
		}

		cells := make([]grid.Cell, 0, length)
		for i := 0; i < length; i++ {
			cells = append(cells, grid.Cell{Day: start.Day, Slot: start.Slot + grid.TimeSlot(i)})
		}
		sessions = append(sessions, Session{Cells: cells, Reason: s.Reason})
	}

	return sessions, warnings
}

// formatAvailability lists non-empty cells chronologically for the prompt.
func formatAvailability(t *heatmap.Table) string {
	var sb strings.Builder
	for _, day := range grid.Weekdays() {
		for _, slot := range grid.TimeSlots() {
			e := t.At(grid.Cell{Day: day, Slot: slot})
			if e.Count == 0 {
				continue
			}
			fmt.Fprintf(&sb, "%s %s: %d (%s)\n", day, slot, e.Count, e.Tooltip())
		}
	}
	if sb.Len() == 0 {
		return "(no submissions)\n"
	}
	return sb.String()
}

func formatTotals(totals []heatmap.StudentTotal) string {
	var sb strings.Builder
	for _, st := range totals {
		fmt.Fprintf(&sb, "- %s: %dh\n", st.Name, st.Slots)
	}
	if sb.Len() == 0 {
		return "(none)\n"
	}
	return sb.String()
}
