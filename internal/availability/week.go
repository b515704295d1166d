package availability

import "time"

// Occurrence is one class period of a grid placed on a concrete date.
type Occurrence struct {
	Slot  int       `json:"slot"`
	Day   int       `json:"day"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekStart returns midnight of the Monday of the week containing reference,
// in reference's location. Sunday belongs to the week that ends on it.
func WeekStart(reference time.Time) time.Time {
	offset := int(reference.Weekday()) - 1
	if reference.Weekday() == time.Sunday {
		offset = 6
	}
	y, m, d := reference.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, reference.Location())
}

// ExpandWeek places every occupied cell of grid on the Monday to Friday of the
// week containing reference. Occurrences are ordered by day, then by slot.
func ExpandWeek(grid Grid, schedule WeeklySchedule, reference time.Time) []Occurrence {
	monday := WeekStart(reference)
	loc := monday.Location()
	y, m, d := monday.Date()

	occurrences := make([]Occurrence, 0, grid.BusyCount())
	for day := 0; day < DayCount; day++ {
		for slot := 0; slot < SlotCount; slot++ {
			if !grid[slot][day] {
				continue
			}
			period := schedule.Slots[slot]
			occurrences = append(occurrences, Occurrence{
				Slot:  slot,
				Day:   day,
				Start: time.Date(y, m, d+day, period.Start.Hour, period.Start.Minute, 0, 0, loc),
				End:   time.Date(y, m, d+day, period.End.Hour, period.End.Minute, 0, 0, loc),
			})
		}
	}
	return occurrences
}
