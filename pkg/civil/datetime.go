package civil

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the ISO-8601 local date-time layout.
const DateTimeLayout = "2006-01-02T15:04:05"

// DateTime is a date and wall-clock time with no zone, as stored in a
// TIMESTAMP column.
type DateTime struct {
	Date Date
	Time TimeOfDay
}

// DateTimeOf returns the wall-clock reading of t in t's location.
func DateTimeOf(t time.Time) DateTime {
	return DateTime{Date: DateOf(t), Time: TimeOfDayOf(t)}
}

// ParseDateTime accepts "2006-01-02T15:04:05", "2006-01-02T15:04" and the
// same forms with a space instead of the T.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.Replace(strings.TrimSpace(s), " ", "T", 1)
	for _, layout := range []string{DateTimeLayout, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTimeOf(t), nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid date-time %q: expected yyyy-MM-ddTHH:mm[:ss]", s)
}

func MustParseDateTime(s string) DateTime {
	dt, err := ParseDateTime(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

func (dt DateTime) IsZero() bool {
	return dt.Date.IsZero() && dt.Time == 0
}

// In returns the instant dt names in loc.
func (dt DateTime) In(loc *time.Location) time.Time {
	return dt.Date.At(dt.Time, loc)
}

func (dt DateTime) Before(o DateTime) bool {
	if dt.Date != o.Date {
		return dt.Date.Before(o.Date)
	}
	return dt.Time < o.Time
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.String())
}

func (dt *DateTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date-time must be a string: %w", err)
	}
	if s == "" {
		*dt = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
