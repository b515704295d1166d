package availability

import (
	"errors"
	"fmt"
	"time"
)

// SlotCount is the number of class periods in a school day.
const SlotCount = 10

// DayCount is the number of weekday columns, Monday through Friday.
const DayCount = 5

// ErrInvalidSchedule indicates a schedule whose slots overlap or are out of order.
var ErrInvalidSchedule = errors.New("availability: invalid schedule")

// ClockTime is a wall-clock time of day at minute granularity.
type ClockTime struct {
	Hour   int
	Minute int
}

// At builds a ClockTime from an hour and minute.
func At(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute}
}

// ClockTimeOf returns the wall-clock time of t in its own location, dropping seconds.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// Compare returns -1, 0 or +1 depending on whether c is before, equal to or after other.
func (c ClockTime) Compare(other ClockTime) int {
	switch a, b := c.minutes(), other.minutes(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String formats the time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Slot is one class period.
type Slot struct {
	Start ClockTime
	End   ClockTime
}

// Contains reports whether c falls within the slot. Both bounds are inclusive.
func (s Slot) Contains(c ClockTime) bool {
	return s.Start.Compare(c) <= 0 && c.Compare(s.End) <= 0
}

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration {
	return time.Duration(s.End.minutes()-s.Start.minutes()) * time.Minute
}

// WeeklySchedule is the fixed table of daily class periods shared by every weekday.
type WeeklySchedule struct {
	Slots [SlotCount]Slot
}

var defaultSchedule = WeeklySchedule{Slots: [SlotCount]Slot{
	{Start: At(8, 10), End: At(9, 0)},
	{Start: At(9, 10), End: At(10, 0)},
	{Start: At(10, 20), End: At(11, 10)},
	{Start: At(11, 20), End: At(12, 10)},
	{Start: At(12, 20), End: At(13, 10)},
	{Start: At(13, 20), End: At(14, 10)},
	{Start: At(14, 20), End: At(15, 10)},
	{Start: At(15, 30), End: At(16, 20)},
	{Start: At(16, 30), End: At(17, 20)},
	{Start: At(17, 30), End: At(18, 20)},
}}

// DefaultSchedule returns the institutional period table.
func DefaultSchedule() WeeklySchedule {
	return defaultSchedule
}

// Validate checks that every slot has a positive length and that slots are
// strictly ascending without overlap.
func (w WeeklySchedule) Validate() error {
	for i, slot := range w.Slots {
		if slot.Start.Compare(slot.End) >= 0 {
			return fmt.Errorf("%w: slot %d ends before it starts", ErrInvalidSchedule, i)
		}
		if i == 0 {
			continue
		}
		if prev := w.Slots[i-1]; prev.End.Compare(slot.Start) >= 0 {
			return fmt.Errorf("%w: slot %d overlaps slot %d", ErrInvalidSchedule, i, i-1)
		}
	}
	return nil
}
