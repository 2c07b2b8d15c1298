package schedule

import "errors"

var (
	ErrBlockNotFound    = errors.New("availability block not found")
	ErrInvalidBlock     = errors.New("availability block must start before it ends")
	ErrInvalidTimeOfDay = errors.New("time of day must be HH:MM between 00:00 and 24:00")
	ErrInvalidWeekday   = errors.New("unknown weekday")
)
