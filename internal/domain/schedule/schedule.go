package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a wall-clock time as minutes after midnight. 24:00 is
// allowed as an end bound.
type TimeOfDay int

const minutesPerDay = 24 * 60

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	// Accept HH:MM:SS as stored by SQL time columns; seconds must be zero.
	if len(s) == 8 && strings.HasSuffix(s, ":00") {
		s = s[:5]
	}
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	t := TimeOfDay(h*60 + m)
	if m > 59 || t > minutesPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = v.Format("15:04")
	default:
		return fmt.Errorf("scanning TimeOfDay from %T", src)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Block is a weekly recurring availability interval [Start, End).
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	DoctorID uuid.UUID    `gorm:"column:doctor_id;type:uuid;not null;index:idx_blocks_doctor_weekday"`
	Weekday  time.Weekday `gorm:"column:weekday;type:smallint;not null;index:idx_blocks_doctor_weekday"`
	Start    TimeOfDay    `gorm:"column:start_time;type:varchar(5);not null"`
	End      TimeOfDay    `gorm:"column:end_time;type:varchar(5);not null"`
}

func (Block) TableName() string {
	return "clinical.availability_blocks"
}

func (b *Block) Validate() error {
	if b.Weekday < time.Sunday || b.Weekday > time.Saturday {
		return ErrInvalidWeekday
	}
	if b.Start < 0 || b.End > minutesPerDay || b.Start >= b.End {
		return ErrInvalidBlock
	}
	return nil
}

// Overlaps reports whether two blocks on the same weekday share covered time.
// Blocks that only touch (one ends where the other starts) do not overlap.
func (b *Block) Overlaps(o *Block) bool {
	return b.Weekday == o.Weekday && b.Start < o.End && o.Start < b.End
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,

	// Locale strings used by the clinic frontends.
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

// ParseWeekday maps a boundary day name (English or Spanish, any case) to a
// time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

type CreateBlockCommand struct {
	DoctorID uuid.UUID
	Weekday  time.Weekday
	Start    TimeOfDay
	End      TimeOfDay
}
