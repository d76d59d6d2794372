// Package date provides a calendar-day value type. Bill dates are
// calendar dates, not timestamps: two bills entered at different times
// of the same day compare equal, regardless of timezone or clock.
package date

import (
	"fmt"
	"time"
)

// Format is the canonical ISO-8601 day format used on the wire and in
// persisted blobs.
const Format = "2006-01-02"

// Date represents a date with day granularity.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
// Out-of-range values roll over the way time.Date does.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime truncates a time.Time to its calendar day in the time's
// location.
func FromTime(t time.Time) Date {
	return New(t.Date())
}

// Today returns the current date in the local timezone.
func Today() Date {
	return FromTime(time.Now())
}

// Parse parses a Date in the canonical "2006-01-02" format.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// time returns the canonical representation of the day: midnight UTC.
func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// Year returns the calendar year.
func (d Date) Year() int { return d.y }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// ISOWeek returns the ISO 8601 year and week number in which d occurs.
func (d Date) ISOWeek() (year, week int) { return d.time().ISOWeek() }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns the date i days after d (before, for negative i).
func (d Date) AddDays(i int) Date { return New(d.y, d.m, d.d+i) }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal
// to or after x.
func (d Date) Compare(x Date) int { return d.time().Compare(x.time()) }

// StartOfWeek returns the Monday of the week containing d.
func (d Date) StartOfWeek() Date {
	// time.Weekday numbers Sunday as 0.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// StartOfMonth returns the first day of the month containing d.
func (d Date) StartOfMonth() Date { return New(d.y, d.m, 1) }

// StartOfYear returns January 1st of the year containing d.
func (d Date) StartOfYear() Date { return New(d.y, time.January, 1) }

// String formats the date in the canonical format.
func (d Date) String() string { return d.time().Format(Format) }

// MarshalJSON encodes the date as a quoted "2006-01-02" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted "2006-01-02" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	v, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = v
	return nil
}
