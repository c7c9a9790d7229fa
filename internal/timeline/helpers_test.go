package timeline

import (
	"testing"
	"time"
)

func rec(row int, ws, name, date, start, end string) Record {
	return Record{Row: row, Workspace: ws, Workload: name, Date: date, Start: start, End: end}
}

func utcOpts() Options { return Options{Location: time.UTC} }

func mustDataset(t *testing.T, opt Options, rs ...Record) *Dataset {
	t.Helper()
	ds, rep := Normalize(rs, opt)
	if rep.Total != len(rs) {
		t.Fatalf("report total=%d want %d", rep.Total, len(rs))
	}
	return ds
}

func day(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDay(s)
	if err != nil {
		t.Fatalf("ParseDay(%q): %v", s, err)
	}
	return d
}

func clock(t *testing.T, d Date, hhmm string) time.Time {
	t.Helper()
	c, ok := ParseClock(hhmm)
	if !ok {
		t.Fatalf("ParseClock(%q) failed", hhmm)
	}
	return d.At(c, time.UTC)
}
