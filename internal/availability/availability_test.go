package availability

import (
	"testing"
	"time"
)

var taipei = time.FixedZone("CST", 8*60*60)

// 2024-03-04 is a Monday.
func weekdayAt(day time.Weekday, hour, minute int) time.Time {
	offset := int(day) - 1
	if day == time.Sunday {
		offset = 6
	}
	return time.Date(2024, time.March, 4+offset, hour, minute, 0, 0, taipei)
}

func TestDefaultScheduleIsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultSchedule().Validate(); err != nil {
		t.Fatalf("default schedule invalid: %v", err)
	}
}

func TestWeeklySchedule_ValidateRejectsOverlap(t *testing.T) {
	t.Parallel()

	schedule := DefaultSchedule()
	schedule.Slots[1].Start = At(8, 50)
	if err := schedule.Validate(); err == nil {
		t.Fatal("expected overlap to be rejected")
	}

	schedule = DefaultSchedule()
	schedule.Slots[3].End = schedule.Slots[3].Start
	if err := schedule.Validate(); err == nil {
		t.Fatal("expected empty slot to be rejected")
	}
}

func TestResolveCurrentSlot(t *testing.T) {
	t.Parallel()

	schedule := DefaultSchedule()

	t.Run("slot boundaries are inclusive", func(t *testing.T) {
		t.Parallel()
		for i, slot := range schedule.Slots {
			start := weekdayAt(time.Tuesday, slot.Start.Hour, slot.Start.Minute)
			end := weekdayAt(time.Tuesday, slot.End.Hour, slot.End.Minute)
			if got, ok := ResolveCurrentSlot(start, schedule); !ok || got != i {
				t.Fatalf("start of slot %d resolved to (%d,%v)", i, got, ok)
			}
			if got, ok := ResolveCurrentSlot(end, schedule); !ok || got != i {
				t.Fatalf("end of slot %d resolved to (%d,%v)", i, got, ok)
			}
		}
	})

	t.Run("gaps between slots resolve to none", func(t *testing.T) {
		t.Parallel()
		for i := 0; i < SlotCount-1; i++ {
			end := schedule.Slots[i].End
			next := schedule.Slots[i+1].Start
			for m := end.minutes() + 1; m < next.minutes(); m++ {
				instant := weekdayAt(time.Wednesday, m/60, m%60)
				if got, ok := ResolveCurrentSlot(instant, schedule); ok {
					t.Fatalf("%s resolved to slot %d, want none", ClockTimeOf(instant), got)
				}
			}
		}
	})

	t.Run("outside the school day resolves to none", func(t *testing.T) {
		t.Parallel()
		for _, instant := range []time.Time{
			weekdayAt(time.Monday, 0, 0),
			weekdayAt(time.Monday, 8, 9),
			weekdayAt(time.Monday, 18, 21),
			weekdayAt(time.Monday, 23, 59),
		} {
			if got, ok := ResolveCurrentSlot(instant, schedule); ok {
				t.Fatalf("%s resolved to slot %d, want none", ClockTimeOf(instant), got)
			}
		}
	})

	t.Run("seconds are ignored", func(t *testing.T) {
		t.Parallel()
		instant := weekdayAt(time.Monday, 9, 0).Add(59 * time.Second)
		if got, ok := ResolveCurrentSlot(instant, schedule); !ok || got != 0 {
			t.Fatalf("09:00:59 resolved to (%d,%v), want slot 0", got, ok)
		}
	})

	t.Run("wall clock of the instant's own location is used", func(t *testing.T) {
		t.Parallel()
		// 00:30 UTC is 08:30 in Taipei.
		instant := time.Date(2024, time.March, 5, 0, 30, 0, 0, time.UTC).In(taipei)
		if got, ok := ResolveCurrentSlot(instant, schedule); !ok || got != 0 {
			t.Fatalf("resolved to (%d,%v), want slot 0", got, ok)
		}
	})
}

func TestResolveCurrentColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		day    time.Weekday
		want   int
		wantOK bool
	}{
		{time.Monday, 0, true},
		{time.Tuesday, 1, true},
		{time.Wednesday, 2, true},
		{time.Thursday, 3, true},
		{time.Friday, 4, true},
		{time.Saturday, 0, false},
		{time.Sunday, 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.day.String(), func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveCurrentColumn(weekdayAt(tt.day, 10, 30))
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ResolveCurrentColumn(%s) = (%d,%v), want (%d,%v)", tt.day, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsBusy(t *testing.T) {
	t.Parallel()

	schedule := DefaultSchedule()

	var full Grid
	for slot := 0; slot < SlotCount; slot++ {
		for day := 0; day < DayCount; day++ {
			full[slot][day] = true
		}
	}

	t.Run("busy during a marked slot", func(t *testing.T) {
		t.Parallel()
		var grid Grid
		grid[0][1] = true
		if !IsBusy(grid, weekdayAt(time.Tuesday, 8, 30), schedule) {
			t.Fatal("expected Tuesday 08:30 to be busy")
		}
		if IsBusy(grid, weekdayAt(time.Monday, 8, 30), schedule) {
			t.Fatal("expected Monday 08:30 to be free")
		}
	})

	t.Run("gap between slots is free", func(t *testing.T) {
		t.Parallel()
		if IsBusy(full, weekdayAt(time.Wednesday, 9, 5), schedule) {
			t.Fatal("expected 09:05 to be free")
		}
	})

	t.Run("weekends are free", func(t *testing.T) {
		t.Parallel()
		if IsBusy(full, weekdayAt(time.Saturday, 10, 30), schedule) {
			t.Fatal("expected Saturday to be free")
		}
		if IsBusy(full, weekdayAt(time.Sunday, 10, 30), schedule) {
			t.Fatal("expected Sunday to be free")
		}
	})

	t.Run("empty grid is free at every minute", func(t *testing.T) {
		t.Parallel()
		var empty Grid
		for day := time.Sunday; day <= time.Saturday; day++ {
			for m := 0; m < 24*60; m++ {
				if IsBusy(empty, weekdayAt(day, m/60, m%60), schedule) {
					t.Fatalf("empty grid busy on %s at %02d:%02d", day, m/60, m%60)
				}
			}
		}
	})

	t.Run("matches the grid cell whenever slot and column resolve", func(t *testing.T) {
		t.Parallel()
		var grid Grid
		grid[3][2] = true
		grid[7][4] = true
		for day := time.Monday; day <= time.Friday; day++ {
			for m := 8 * 60; m <= 19*60; m++ {
				instant := weekdayAt(day, m/60, m%60)
				slot, okSlot := ResolveCurrentSlot(instant, schedule)
				col, okCol := ResolveCurrentColumn(instant)
				want := okSlot && okCol && grid[slot][col]
				if got := IsBusy(grid, instant, schedule); got != want {
					t.Fatalf("IsBusy at %s %s = %v, want %v", day, ClockTimeOf(instant), got, want)
				}
			}
		}
	})
}

func TestStatusAndCurrentCell(t *testing.T) {
	t.Parallel()

	schedule := DefaultSchedule()
	var grid Grid
	grid[4][3] = true

	instant := weekdayAt(time.Thursday, 12, 45)
	cell, ok := CurrentCell(instant, schedule)
	if !ok || cell != (Cell{Slot: 4, Day: 3}) {
		t.Fatalf("CurrentCell = (%+v,%v)", cell, ok)
	}
	if got := Status(grid, instant, schedule); got != Busy {
		t.Fatalf("Status = %s, want busy", got)
	}
	if got := Status(grid, weekdayAt(time.Thursday, 12, 15), schedule); got != Free {
		t.Fatalf("Status in gap = %s, want free", got)
	}
	if _, ok := CurrentCell(weekdayAt(time.Saturday, 12, 45), schedule); ok {
		t.Fatal("expected no current cell on Saturday")
	}
}
