// Package countdown computes the time left until the next yearly occurrence
// of a fixed month and day.
package countdown

import (
	"fmt"
	"time"
)

// Target is a yearly date, taken at local midnight.
type Target struct {
	Month time.Month
	Day   int
}

// Validate checks that the month/day pair exists in a leap year. February 29
// is accepted and falls on February 28 in other years.
func (t Target) Validate() error {
	if t.Month < time.January || t.Month > time.December {
		return fmt.Errorf("countdown: month %d out of range", t.Month)
	}
	last := time.Date(2024, t.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if t.Day < 1 || t.Day > last {
		return fmt.Errorf("countdown: day %d out of range for %s", t.Day, t.Month)
	}
	return nil
}

// Next returns the next occurrence of t relative to now, in now's location.
// The current year's date is used until it has passed.
func (t Target) Next(now time.Time) time.Time {
	next := t.in(now.Year(), now.Location())
	if now.After(next) {
		next = t.in(now.Year()+1, now.Location())
	}
	return next
}

// in returns midnight of t in year, with the day clamped to the month's
// length so that time.Date does not roll into the next month.
func (t Target) in(year int, loc *time.Location) time.Time {
	last := time.Date(year, t.Month+1, 0, 0, 0, 0, 0, loc).Day()
	return time.Date(year, t.Month, min(t.Day, last), 0, 0, 0, 0, loc)
}

// Remaining is a duration split into whole display units.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Split breaks d down, truncating each unit.
func Split(d time.Duration) Remaining {
	if d < 0 {
		d = 0
	}
	day := 24 * time.Hour
	return Remaining{
		Days:    int(d / day),
		Hours:   int(d % day / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}

// Until returns the time left from now until the next occurrence of t.
func Until(now time.Time, t Target) Remaining {
	return Split(t.Next(now).Sub(now))
}
