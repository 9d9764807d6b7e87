package scheduler

import (
	"reflect"
	"testing"

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/heatmap"
)

func row(day, time, name string) heatmap.Row {
	return heatmap.Row{Day: day, Time: time, StudentName: name}
}

// sampleTable: Ana and Ben overlap Monday 9-11, Cy and Dee share
// Tuesday 8-11.
func sampleTable() *heatmap.Table {
	return heatmap.Aggregate([]heatmap.Row{
		row("Monday", "8:00 AM", "Ana"),
		row("Monday", "9:00 AM", "Ana"),
		row("Monday", "9:00 AM", "Ben"),
		row("Monday", "10:00 AM", "Ana"),
		row("Monday", "10:00 AM", "Ben"),
		row("Monday", "11:00 AM", "Ben"),
		row("Tuesday", "8:00 AM", "Cy"),
		row("Tuesday", "8:00 AM", "Dee"),
		row("Tuesday", "9:00 AM", "Cy"),
		row("Tuesday", "9:00 AM", "Dee"),
		row("Tuesday", "10:00 AM", "Cy"),
		row("Tuesday", "10:00 AM", "Dee"),
	}, heatmap.AggregateOptions{})
}

func labels(ws []Window) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

func TestNew_Length(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, grid.DefaultBlockLength},
		{-2, grid.DefaultBlockLength},
		{1, 1},
		{grid.NumSlots, grid.NumSlots},
		{grid.NumSlots + 1, grid.DefaultBlockLength},
	}
	for _, tt := range tests {
		if got := New(tt.in).Length(); got != tt.want {
			t.Errorf("New(%d).Length() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCanFit(t *testing.T) {
	s := New(3)
	tests := []struct {
		start grid.TimeSlot
		want  bool
	}{
		{0, true},
		{8, true},  // 4 PM to 7 PM
		{9, false}, // would run past 7 PM
		{-1, false},
	}
	for _, tt := range tests {
		if got := s.CanFit(tt.start); got != tt.want {
			t.Errorf("CanFit(%d) = %v, want %v", tt.start, got, tt.want)
		}
	}
}

func TestWindow_String(t *testing.T) {
	tests := []struct {
		w    Window
		want string
	}{
		{Window{Day: 0, Start: 1, Length: 3}, "Monday 9:00 AM-12:00 PM"},
		{Window{Day: 4, Start: 10, Length: 1}, "Friday 6:00 PM-7:00 PM"},
		{Window{Day: 2, Start: 4, Length: 2}, "Wednesday 12:00 PM-2:00 PM"},
	}
	for _, tt := range tests {
		if got := tt.w.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestWindow_Cells(t *testing.T) {
	w := Window{Day: 1, Start: 2, Length: 3}
	want := []grid.Cell{{Day: 1, Slot: 2}, {Day: 1, Slot: 3}, {Day: 1, Slot: 4}}
	if got := w.Cells(); !reflect.DeepEqual(got, want) {
		t.Errorf("Cells() = %v, want %v", got, want)
	}
	if w.End() != 4 {
		t.Errorf("End() = %d, want 4", w.End())
	}
}

func TestWindows_Order(t *testing.T) {
	ws := New(2).Windows(sampleTable())

	want := []string{
		"Monday 9:00 AM-11:00 AM",  // 2 together, 4 seats
		"Tuesday 8:00 AM-10:00 AM", // 2 together, 4 seats, later day
		"Tuesday 9:00 AM-11:00 AM", // 2 together, 4 seats
		"Monday 8:00 AM-10:00 AM",  // Ana only, 3 seats
		"Monday 10:00 AM-12:00 PM", // Ben only, 3 seats
	}
	if got := labels(ws); !reflect.DeepEqual(got, want) {
		t.Fatalf("Windows() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(ws[0].Together, []string{"Ana", "Ben"}) || ws[0].Seats != 4 {
		t.Errorf("first window = %+v", ws[0])
	}
	if !reflect.DeepEqual(ws[3].Together, []string{"Ana"}) {
		t.Errorf("Monday 8 together = %v, want [Ana]", ws[3].Together)
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name   string
		length int
		k      int
		want   []string
	}{
		{
			name:   "overlapping windows are skipped",
			length: 2,
			k:      5,
			want:   []string{"Monday 9:00 AM-11:00 AM", "Tuesday 8:00 AM-10:00 AM"},
		},
		{
			name:   "limit",
			length: 2,
			k:      1,
			want:   []string{"Monday 9:00 AM-11:00 AM"},
		},
		{
			name:   "three hours",
			length: 3,
			k:      0,
			want:   []string{"Tuesday 8:00 AM-11:00 AM", "Monday 8:00 AM-11:00 AM"},
		},
		{
			name:   "single hours",
			length: 1,
			k:      0,
			want:   []string{"Monday 9:00 AM-10:00 AM", "Monday 10:00 AM-11:00 AM", "Tuesday 8:00 AM-9:00 AM"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labels(New(tt.length).Suggest(sampleTable(), tt.k))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuggest_EmptyTable(t *testing.T) {
	if got := New(3).Suggest(heatmap.NewTable(), 3); len(got) != 0 {
		t.Errorf("Suggest() on empty table = %v", got)
	}
}
