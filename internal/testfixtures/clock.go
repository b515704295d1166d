package testfixtures

import (
	"sync"
	"time"
)

// Clock is a settable time source. Services receive its NowFunc so a test can
// move "now" across class periods and weekdays.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc returns time.Now for a nil clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// SetWeekdayTime moves the clock to hour:minute on a day of the reference
// week. day uses the grid convention, 0 for Monday.
func (c *Clock) SetWeekdayTime(day, hour, minute int) time.Time {
	t := WeekdayAt(day, hour, minute)
	c.Set(t)
	return t
}
