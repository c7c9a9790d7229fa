package timeline

import (
	"sort"
	"strings"
	"time"
)

// Report counts what normalization kept and why rows were dropped.
type Report struct {
	Total        int
	Kept         int
	InvalidDate  int
	InvalidStart int
	InvalidEnd   int
	// Inverted counts intervals with end before start, whatever the
	// policy did with them.
	Inverted int
}

// Dropped is the number of input records absent from the dataset.
func (r Report) Dropped() int { return r.Total - r.Kept }

// Dataset is the immutable, normalized base of every view.
// Intervals are kept in canonical (day, workspace, start) order.
type Dataset struct {
	intervals []Interval
	days      []Date
	loc       *time.Location
}

// Normalize resolves records into intervals, dropping rows whose date or
// clock fields cannot be parsed. An empty dataset is a valid result.
func Normalize(records []Record, opt Options) (*Dataset, Report) {
	opt = opt.withDefaults()
	rep := Report{Total: len(records)}

	out := make([]Interval, 0, len(records))
	for _, r := range records {
		day, ok := ParseDate(r.Date, opt.Location, opt.DayFirst)
		if !ok {
			rep.InvalidDate++
			continue
		}
		startClock, ok := ParseClock(r.Start)
		if !ok {
			rep.InvalidStart++
			continue
		}
		endClock, ok := ParseClock(r.End)
		if !ok {
			rep.InvalidEnd++
			continue
		}

		iv := Interval{
			Row:       r.Row,
			Workload:  strings.TrimSpace(r.Workload),
			Workspace: strings.TrimSpace(r.Workspace),
			Day:       day,
			Start:     day.At(startClock, opt.Location),
			End:       day.At(endClock, opt.Location),
			StartText: r.Start,
			EndText:   r.End,
		}
		iv.Period = PeriodOf(iv.Start)

		if iv.End.Before(iv.Start) {
			rep.Inverted++
			switch opt.Inverted {
			case InvertedDrop:
				continue
			case InvertedFlag:
				iv.Inverted = true
			case InvertedRollover:
				iv.End = day.AddDays(1).At(endClock, opt.Location)
			}
		}
		out = append(out, iv)
	}

	sortCanonical(out)
	rep.Kept = len(out)
	return &Dataset{intervals: out, days: distinctDays(out), loc: opt.Location}, rep
}

// sortCanonical orders by (day, workspace, start); ties keep input order.
func sortCanonical(in []Interval) {
	sort.SliceStable(in, func(i, j int) bool {
		a, b := in[i], in[j]
		if c := a.Day.Compare(b.Day); c != 0 {
			return c < 0
		}
		if a.Workspace != b.Workspace {
			return a.Workspace < b.Workspace
		}
		return a.Start.Before(b.Start)
	})
}

func distinctDays(in []Interval) []Date {
	seen := make(map[Date]struct{}, 8)
	days := make([]Date, 0, 8)
	for _, iv := range in {
		if _, ok := seen[iv.Day]; ok {
			continue
		}
		seen[iv.Day] = struct{}{}
		days = append(days, iv.Day)
	}
	// newest first
	sort.Slice(days, func(i, j int) bool { return days[j].Before(days[i]) })
	return days
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.intervals)
}

// Intervals returns a copy of the normalized intervals in canonical order.
func (d *Dataset) Intervals() []Interval {
	if d == nil {
		return nil
	}
	return append([]Interval(nil), d.intervals...)
}

// Days returns the distinct days present, newest first.
func (d *Dataset) Days() []Date {
	if d == nil {
		return nil
	}
	return append([]Date(nil), d.days...)
}

// HasDay reports whether any interval falls on day.
func (d *Dataset) HasDay(day Date) bool {
	if d == nil {
		return false
	}
	for _, x := range d.days {
		if x == day {
			return true
		}
	}
	return false
}

// Latest is the newest day in the dataset (zero if empty).
func (d *Dataset) Latest() Date {
	if d == nil || len(d.days) == 0 {
		return Date{}
	}
	return d.days[0]
}

func (d *Dataset) Location() *time.Location {
	if d == nil || d.loc == nil {
		return time.Local
	}
	return d.loc
}
