package summary

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cosmelab/labgrid/internal/db"
	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/llm"
)

type fakeFetcher struct {
	rows  []heatmap.Row
	err   error
	calls int
}

func (f *fakeFetcher) FetchSchedule(context.Context) ([]heatmap.Row, error) {
	f.calls++
	return f.rows, f.err
}

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Chat(context.Context, []llm.Message) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) ChatJSON(_ context.Context, _ []llm.Message, result any) error {
	return json.Unmarshal([]byte(f.reply), result)
}

var sampleRows = []heatmap.Row{
	{Day: "Monday", Time: "9:00 AM", StudentName: "Ana Ruiz"},
	{Day: "Monday", Time: "9:00 AM", StudentName: "Ben Li"},
	{Day: "Monday", Time: "10:00 AM", StudentName: "Ana Ruiz"},
	{Day: "Sunday", Time: "9:00 AM", StudentName: "Cy"},
}

func newStore(t *testing.T) *db.SQLite {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSummarize_Windows(t *testing.T) {
	tests := []struct {
		name        string
		blockLength int
		want        []string
	}{
		{"default length has no full window", 0, nil},
		{"two hours", 2, []string{"Monday 9:00 AM-11:00 AM"}},
		{"one hour prefers both students", 1, []string{"Monday 9:00 AM-10:00 AM", "Monday 10:00 AM-11:00 AM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(sampleRows, time.Time{}, Options{BlockLength: tt.blockLength})
			var got []string
			for _, w := range s.Windows {
				got = append(got, w.String())
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("windows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	at := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)
	s := Summarize(sampleRows, at, Options{FirstNameOnly: true, BestSlots: 1})

	if s.Rows != 4 || s.Table.Dropped != 1 {
		t.Errorf("rows = %d, dropped = %d", s.Rows, s.Table.Dropped)
	}
	if len(s.Totals) != 2 || s.Totals[0].Name != "Ana" || s.Totals[0].Slots != 2 {
		t.Errorf("totals = %+v", s.Totals)
	}
	if s.Colors["Ana"] != "purple" || s.Colors["Ben"] != "cyan" {
		t.Errorf("colors = %v", s.Colors)
	}
	if len(s.Best) != 1 || s.Best[0].Count != 2 {
		t.Errorf("best = %+v", s.Best)
	}
	if !s.FetchedAt.Equal(at) {
		t.Errorf("fetched at = %v", s.FetchedAt)
	}
}

func TestSummarize_RandomizedColorsStayDistinct(t *testing.T) {
	s := Summarize(sampleRows, time.Time{}, Options{RandomizeColors: true, Rand: rand.New(rand.NewSource(7))})
	if s.Colors["Ana Ruiz"] == s.Colors["Ben Li"] {
		t.Errorf("two submitters share a color: %v", s.Colors)
	}
}

func TestBuildScheduleSummary_SavesSnapshot(t *testing.T) {
	store := newStore(t)
	at := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rows: sampleRows}

	s, err := BuildScheduleSummary(context.Background(), fetcher, BuildOptions{
		Snapshots:     store,
		KeepSnapshots: 3,
		Now:           func() time.Time { return at },
	})
	if err != nil {
		t.Fatalf("BuildScheduleSummary() error = %v", err)
	}
	if s.Offline || s.FetchErr != nil {
		t.Errorf("offline = %v, fetchErr = %v", s.Offline, s.FetchErr)
	}

	snap, err := store.LatestSnapshot(context.Background())
	if err != nil || snap == nil {
		t.Fatalf("LatestSnapshot = %v, %v", snap, err)
	}
	if !snap.FetchedAt.Equal(at) || !strings.Contains(string(snap.Rows), `"student_name":"Ben Li"`) {
		t.Errorf("snapshot = %s at %v", snap.Rows, snap.FetchedAt)
	}
}

func TestBuildScheduleSummary_FallsBackToSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)

	if _, err := BuildScheduleSummary(ctx, &fakeFetcher{rows: sampleRows}, BuildOptions{
		Snapshots: store,
		Now:       func() time.Time { return at },
	}); err != nil {
		t.Fatalf("first build failed: %v", err)
	}

	boom := errors.New("network down")
	s, err := BuildScheduleSummary(ctx, &fakeFetcher{err: boom}, BuildOptions{Snapshots: store})
	if err != nil {
		t.Fatalf("BuildScheduleSummary() error = %v", err)
	}
	if !s.Offline || !errors.Is(s.FetchErr, boom) {
		t.Errorf("offline = %v, fetchErr = %v", s.Offline, s.FetchErr)
	}
	if s.Table.At(s.Best[0].Cell).Count != 2 || !s.FetchedAt.Equal(at) {
		t.Errorf("snapshot table not restored: %+v", s.Best)
	}
}

func TestBuildScheduleSummary_Errors(t *testing.T) {
	boom := errors.New("network down")

	tests := []struct {
		name    string
		fetcher Fetcher
		opts    BuildOptions
		want    error
	}{
		{
			name:    "fetch error without snapshot",
			fetcher: &fakeFetcher{err: boom},
			want:    boom,
		},
		{
			name:    "offline without snapshot",
			fetcher: &fakeFetcher{rows: sampleRows},
			opts:    BuildOptions{Offline: true},
			want:    ErrNoSnapshot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildScheduleSummary(context.Background(), tt.fetcher, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildScheduleSummary_OfflineSkipsFetch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if err := store.SaveSnapshot(ctx, []byte(`[{"day":"Friday","time":"6:00 PM","first_name":"Dee"}]`), time.Now(), 0); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	fetcher := &fakeFetcher{rows: sampleRows}
	s, err := BuildScheduleSummary(ctx, fetcher, BuildOptions{Snapshots: store, Offline: true})
	if err != nil {
		t.Fatalf("BuildScheduleSummary() error = %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher called %d times in offline mode", fetcher.calls)
	}
	if len(s.Totals) != 1 || s.Totals[0].Name != "Dee" {
		t.Errorf("totals = %+v", s.Totals)
	}
}

func TestBuildScheduleSummary_Insight(t *testing.T) {
	client := &fakeLLM{reply: `{"sessions":[{"day":"Monday","start":"9:00 AM","reason":"both free"}]}`}

	s, err := BuildScheduleSummary(context.Background(), &fakeFetcher{rows: sampleRows}, BuildOptions{
		IncludeInsight:  true,
		SuggestSessions: true,
		Options:         Options{BlockLength: 2},
		Client:          client,
	})
	if err != nil {
		t.Fatalf("BuildScheduleSummary() error = %v", err)
	}
	if s.Insight != client.reply {
		t.Errorf("insight = %q", s.Insight)
	}
	if len(s.Sessions) != 1 || len(s.Sessions[0].Cells) != 2 {
		t.Errorf("sessions = %+v", s.Sessions)
	}
}

func TestBuildScheduleSummary_InsightNeedsModel(t *testing.T) {
	_, err := BuildScheduleSummary(context.Background(), &fakeFetcher{rows: sampleRows}, BuildOptions{
		IncludeInsight: true,
		Provider:       "ollama",
	})
	if err == nil || !strings.Contains(err.Error(), "model is required") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildScheduleSummary_EmptyScheduleSkipsInsight(t *testing.T) {
	s, err := BuildScheduleSummary(context.Background(), &fakeFetcher{}, BuildOptions{IncludeInsight: true})
	if err != nil {
		t.Fatalf("BuildScheduleSummary() error = %v", err)
	}
	if s.Insight != "" || s.Table.Total() != 0 {
		t.Errorf("summary = %+v", s)
	}
}
