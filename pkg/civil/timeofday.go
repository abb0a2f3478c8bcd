package civil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	secondsPerDay = 24 * 60 * 60

	// HourMinuteLayout renders a time of day as "15:04".
	HourMinuteLayout = "15:04"
	// ClockLayout renders a time of day as "15:04:05".
	ClockLayout = "15:04:05"
)

// TimeOfDay is a wall-clock time, stored as seconds since midnight.
// Arithmetic does not wrap at midnight: a value at or past 24:00 is valid
// for comparisons but never produced by parsing.
type TimeOfDay int

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{HourMinuteLayout, ClockLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q: expected HH:mm or HH:mm:ss", s)
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Duration returns the offset of t from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Second
}

func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Second)
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }
func (t TimeOfDay) After(o TimeOfDay) bool  { return t > o }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// Format renders t with a layout understood by time.Time.Format.
func (t TimeOfDay) Format(layout string) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(t.Duration()).Format(layout)
}

// String renders "15:04:05".
func (t TimeOfDay) String() string {
	return t.Format(ClockLayout)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either a "HH:mm[:ss]" string or an object of the
// form {"hour": 9, "minute": 30}.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var parts struct {
			Hour   int `json:"hour"`
			Minute int `json:"minute"`
			Second int `json:"second"`
		}
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("invalid time object: %w", err)
		}
		v := NewTimeOfDay(parts.Hour, parts.Minute, parts.Second)
		if !v.Valid() || parts.Minute < 0 || parts.Minute > 59 || parts.Second < 0 || parts.Second > 59 {
			return fmt.Errorf("invalid time object: %s", data)
		}
		*t = v
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string or {hour, minute}: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
