package timeline

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Date is a calendar day without a clock or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDay parses a strict YYYY-MM-DD day, as used in filter inputs.
func ParseDay(s string) (Date, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// At returns the instant at the given clock offset on this day in loc.
func (d Date) At(clock time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	clock = clock.Round(time.Millisecond)
	h := int(clock / time.Hour)
	m := int(clock % time.Hour / time.Minute)
	s := int(clock % time.Minute / time.Second)
	ns := int(clock % time.Second)
	return time.Date(d.Year, d.Month, d.Day, h, m, s, ns, loc)
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
