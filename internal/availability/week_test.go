package availability

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, taipei)
	for offset := 0; offset < 7; offset++ {
		reference := monday.AddDate(0, 0, offset).Add(15 * time.Hour)
		if got := WeekStart(reference); !got.Equal(monday) {
			t.Fatalf("WeekStart(%s) = %s, want %s", reference.Weekday(), got, monday)
		}
	}
}

func TestExpandWeek(t *testing.T) {
	t.Parallel()

	schedule := DefaultSchedule()
	var grid Grid
	grid[0][0] = true
	grid[9][4] = true
	grid[2][0] = true

	got := ExpandWeek(grid, schedule, time.Date(2024, time.March, 6, 12, 0, 0, 0, taipei))
	if len(got) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(got))
	}

	want := []Occurrence{
		{Slot: 0, Day: 0, Start: time.Date(2024, time.March, 4, 8, 10, 0, 0, taipei), End: time.Date(2024, time.March, 4, 9, 0, 0, 0, taipei)},
		{Slot: 2, Day: 0, Start: time.Date(2024, time.March, 4, 10, 20, 0, 0, taipei), End: time.Date(2024, time.March, 4, 11, 10, 0, 0, taipei)},
		{Slot: 9, Day: 4, Start: time.Date(2024, time.March, 8, 17, 30, 0, 0, taipei), End: time.Date(2024, time.March, 8, 18, 20, 0, 0, taipei)},
	}
	for i := range want {
		if got[i].Slot != want[i].Slot || got[i].Day != want[i].Day || !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("occurrence %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	for _, occ := range got {
		if !IsBusy(grid, occ.Start, schedule) || !IsBusy(grid, occ.End, schedule) {
			t.Fatalf("occurrence %+v not classified busy at its bounds", occ)
		}
	}
}

func TestExpandWeek_EmptyGrid(t *testing.T) {
	t.Parallel()

	if got := ExpandWeek(Grid{}, DefaultSchedule(), time.Now()); len(got) != 0 {
		t.Fatalf("expected no occurrences, got %d", len(got))
	}
}

func BenchmarkIsBusy(b *testing.B) {
	schedule := DefaultSchedule()
	var grid Grid
	grid[5][2] = true
	instant := time.Date(2024, time.March, 6, 13, 45, 0, 0, taipei)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !IsBusy(grid, instant, schedule) {
			b.Fatal("expected busy")
		}
	}
}
