package errors

import "errors"

var (
	ErrNotFound = errors.New("staff member not found")

	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")

	ErrInvalidSchedule = errors.New("schedule start must not be after end")
)
