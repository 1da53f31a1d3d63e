package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ParseClock parses an "HH:MM" 24-hour time of day into minutes since
// midnight. Comparing minutes avoids lexicographic pitfalls with unpadded
// hours ("9:00" vs "10:00").
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WeekdayName returns the lowercase weekday name for a date, matching the
// keys of StaffMember.Schedule.
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// Covers reports whether the window contains the time of day, inclusive at
// both ends.
func (d *DayHours) Covers(timeOfDay string) (bool, error) {
	at, err := ParseClock(timeOfDay)
	if err != nil {
		return false, err
	}
	start, err := ParseClock(d.Start)
	if err != nil {
		return false, err
	}
	end, err := ParseClock(d.End)
	if err != nil {
		return false, err
	}
	return start <= at && at <= end, nil
}

// Valid reports whether the window satisfies start <= end.
func (d *DayHours) Valid() bool {
	start, err := ParseClock(d.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(d.End)
	if err != nil {
		return false
	}
	return start <= end
}
