// Package clock supplies the current time and the clinic's timezone.
// Everything that reasons about "today" or "in the past" takes a Clock so
// tests can pin the date.
package clock

import (
	"fmt"
	"time"
)

type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock reporting times in the named IANA zone.
func NewSystem(timezone string) (*System, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

func (s *System) Location() *time.Location {
	return s.loc
}

// Fixed always reports the same instant. Used by tests.
type Fixed struct {
	T   time.Time
	Loc *time.Location
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{T: t, Loc: t.Location()}
}

func (f *Fixed) Now() time.Time {
	return f.T.In(f.Loc)
}

func (f *Fixed) Location() *time.Location {
	return f.Loc
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Today is StartOfDay of c.Now().
func Today(c Clock) time.Time {
	return StartOfDay(c.Now(), c.Location())
}

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// IsPastDate reports whether the calendar day of date is before today.
func IsPastDate(c Clock, date time.Time) bool {
	return StartOfDay(date, c.Location()).Before(Today(c))
}
