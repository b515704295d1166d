// Package availability classifies whether a user is in class at a given
// instant, using a fixed weekly period table and the user's occupancy grid.
//
// Every function here is pure. The instant is always an argument; callers
// decide which clock and which location it comes from. The wall clock of the
// instant in its own location is what gets compared against the table.
package availability

import "time"

// Availability is the free/busy label for a user at an instant.
type Availability string

const (
	// Free means no class at the instant, including outside class hours and weekends.
	Free Availability = "free"
	// Busy means the grid marks the current slot and weekday as occupied.
	Busy Availability = "busy"
)

// ResolveCurrentSlot returns the index of the slot containing instant, or
// false when the instant falls between slots or outside the school day.
func ResolveCurrentSlot(instant time.Time, schedule WeeklySchedule) (int, bool) {
	now := ClockTimeOf(instant)
	for i, slot := range schedule.Slots {
		if slot.Contains(now) {
			return i, true
		}
	}
	return 0, false
}

// ResolveCurrentColumn maps the weekday of instant to Monday=0 .. Friday=4.
// Saturday and Sunday have no column.
func ResolveCurrentColumn(instant time.Time) (int, bool) {
	day := int(instant.Weekday()) - 1
	if instant.Weekday() == time.Sunday {
		day = 6
	}
	if day < 0 || day >= DayCount {
		return 0, false
	}
	return day, true
}

// CurrentCell returns the grid cell for instant, used to highlight "now" in a
// displayed timetable.
func CurrentCell(instant time.Time, schedule WeeklySchedule) (Cell, bool) {
	slot, ok := ResolveCurrentSlot(instant, schedule)
	if !ok {
		return Cell{}, false
	}
	day, ok := ResolveCurrentColumn(instant)
	if !ok {
		return Cell{}, false
	}
	return Cell{Slot: slot, Day: day}, true
}

// IsBusy reports whether the grid marks the user as in class at instant.
// Outside any slot, and on weekends, the user is free regardless of the grid.
func IsBusy(grid Grid, instant time.Time, schedule WeeklySchedule) bool {
	cell, ok := CurrentCell(instant, schedule)
	if !ok {
		return false
	}
	return grid[cell.Slot][cell.Day]
}

// Status returns the Availability label for grid at instant.
func Status(grid Grid, instant time.Time, schedule WeeklySchedule) Availability {
	if IsBusy(grid, instant, schedule) {
		return Busy
	}
	return Free
}
