// Package streak implements calendar-day streak arithmetic in local time.
package streak

import (
	"time"

	"github.com/verte-zerg/lingoquest/internal/model"
)

// GraceDays is the largest gap, in calendar days, that still continues a streak.
const GraceDays = 2

// DayKeyLayout formats activity log keys.
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar date of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a day key as midnight in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// DaysBetween returns the number of calendar days from from to to, both
// taken in to's location. Time of day is ignored.
func DaysBetween(from, to time.Time) int {
	loc := to.Location()
	f := from.In(loc)
	a := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Next returns the streak after an activity at now, given the current streak
// and the previous activity time.
func Next(current int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	switch d := DaysBetween(*last, now); {
	case d <= 0:
		return current
	case d <= GraceDays:
		return current + 1
	default:
		return 1
	}
}

// Broken reports whether a streak whose last activity was at last has lapsed
// by now.
func Broken(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	return DaysBetween(*last, now) > GraceDays
}

// Flags returns the time flags earned by an activity at now.
func Flags(now time.Time) []string {
	var flags []string
	h := now.Hour()
	if h >= 5 && h < 8 {
		flags = append(flags, model.FlagEarlyBird)
	}
	if h >= 22 || h < 2 {
		flags = append(flags, model.FlagNightOwl)
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		flags = append(flags, model.FlagWeekendWarrior)
	}
	return flags
}
