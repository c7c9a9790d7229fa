package timeline

import (
	"fmt"
	"strings"
)

// Selection is the active filter: one day and a period.
type Selection struct {
	Day    Date
	Period Period
}

// ParsePeriod accepts all|am|pm (any case) plus the labels of the original
// spreadsheet UI.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos", "full", "full_day", "día completo", "dia completo":
		return PeriodAll, nil
	case "am":
		return PeriodAM, nil
	case "pm":
		return PeriodPM, nil
	default:
		return "", fmt.Errorf("invalid period %q (all|am|pm)", s)
	}
}

// ParseSelection builds a Selection from user input. An empty day selects
// the newest day of ds.
func ParseSelection(day, period string, ds *Dataset) (Selection, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return Selection{}, err
	}
	var d Date
	if strings.TrimSpace(day) == "" {
		d = ds.Latest()
	} else {
		d, err = ParseDay(day)
		if err != nil {
			return Selection{}, err
		}
	}
	return Selection{Day: d, Period: p}, nil
}

// Label is the human form of the period ("AM", "PM", "full day").
func (s Selection) Label() string {
	switch s.Period {
	case PeriodAM, PeriodPM:
		return string(s.Period)
	default:
		return "full day"
	}
}

func (s Selection) String() string { return s.Day.String() + " " + s.Label() }

// Matches reports whether iv falls inside the selection.
func (s Selection) Matches(iv Interval) bool {
	if iv.Day != s.Day {
		return false
	}
	return s.Period == "" || s.Period == PeriodAll || iv.Period == s.Period
}

// Filter returns a fresh copy of the intervals matching sel, in canonical
// order. A day absent from ds yields an empty slice.
func Filter(ds *Dataset, sel Selection) []Interval {
	if ds == nil {
		return nil
	}
	var out []Interval
	for _, iv := range ds.intervals {
		if sel.Matches(iv) {
			out = append(out, iv)
		}
	}
	return out
}
