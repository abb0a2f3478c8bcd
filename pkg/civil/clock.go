package civil

import "time"

// Clock supplies the current instant in the location used for civil
// calendar arithmetic.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// SystemClock returns a Clock reading the host time, expressed in loc.
// A nil loc means UTC.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c systemClock) Location() *time.Location { return c.loc }

// FixedClock always reports the same instant. Used by tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) Location() *time.Location { return c.At.Location() }

// Today returns the current date according to c.
func Today(c Clock) Date {
	return DateOf(c.Now())
}
