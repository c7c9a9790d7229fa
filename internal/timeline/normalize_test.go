package timeline

import (
	"testing"
	"time"
)

func TestNormalizeDropsUnparsableRows(t *testing.T) {
	ds, rep := Normalize([]Record{
		rec(1, "MAM", "sales", "2024-05-02", "08:00:00", "09:00:00"),
		rec(2, "MAM", "stock", "2024-05-02", "08:00:00", "??"),
		rec(3, "MAC", "crm", "not a date", "08:00:00", "09:00:00"),
		rec(4, "MAC", "crm", "2024-05-02", "", "09:00:00"),
	}, utcOpts())

	if ds.Len() != 1 {
		t.Fatalf("kept %d intervals, want 1", ds.Len())
	}
	if rep.InvalidEnd != 1 || rep.InvalidDate != 1 || rep.InvalidStart != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Dropped() != 3 || rep.Kept != 1 {
		t.Fatalf("dropped=%d kept=%d", rep.Dropped(), rep.Kept)
	}

	v := Build(ds, Selection{Day: day(t, "2024-05-02"), Period: PeriodAll}, utcOpts())
	for _, e := range v.Executions {
		if e.Workload == "stock" {
			t.Fatalf("row with unparsable end leaked into the view")
		}
	}
}

func TestNormalizeBareHourCells(t *testing.T) {
	ds, rep := Normalize([]Record{
		rec(1, "MAM", "sales", "2024-05-02", "14", "15"),
		rec(2, "MAM", "stock", "2024-05-02", "800", "900"),
	}, utcOpts())
	if rep.Kept != 1 || rep.InvalidStart != 1 {
		t.Fatalf("report %+v", rep)
	}
	iv := ds.Intervals()[0]
	if iv.Start.Hour() != 14 || iv.End.Hour() != 15 || iv.Period != PeriodPM {
		t.Fatalf("interval %s-%s %s", iv.Start, iv.End, iv.Period)
	}
}

func TestNormalizeEmptyIsValid(t *testing.T) {
	ds, rep := Normalize(nil, Options{})
	if ds == nil || ds.Len() != 0 || rep.Total != 0 {
		t.Fatalf("empty input should give an empty dataset")
	}
	if !ds.Latest().IsZero() || len(ds.Days()) != 0 {
		t.Fatalf("empty dataset has days")
	}
}

func TestNormalizePeriod(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "a", "2024-05-02", "11:59:59", "12:30:00"),
		rec(2, "MAM", "b", "2024-05-02", "12:00:00", "12:30:00"),
	)
	ivs := ds.Intervals()
	if ivs[0].Period != PeriodAM || ivs[1].Period != PeriodPM {
		t.Fatalf("periods = %s, %s", ivs[0].Period, ivs[1].Period)
	}
}

func TestNormalizeCanonicalOrderAndDays(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "a", "2024-05-03", "08:00", "09:00"),
		rec(2, "MAM", "b", "2024-05-02", "10:00", "11:00"),
		rec(3, "MAC", "c", "2024-05-02", "12:00", "13:00"),
		rec(4, "MAM", "d", "2024-05-02", "07:00", "08:00"),
	)
	var got []string
	for _, iv := range ds.Intervals() {
		got = append(got, iv.Workload)
	}
	want := []string{"c", "d", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order=%v want %v", got, want)
		}
	}
	days := ds.Days()
	if len(days) != 2 || days[0].String() != "2024-05-03" || days[1].String() != "2024-05-02" {
		t.Fatalf("days=%v", days)
	}
	if !ds.HasDay(day(t, "2024-05-02")) || ds.HasDay(day(t, "2024-05-01")) {
		t.Fatalf("HasDay broken")
	}
}

func TestInvertedPolicies(t *testing.T) {
	rows := []Record{
		rec(1, "MAM", "late", "2024-05-02", "23:30", "00:30"),
		rec(2, "MAM", "ok", "2024-05-02", "08:00", "08:30"),
	}

	t.Run("flag", func(t *testing.T) {
		ds, rep := Normalize(rows, Options{Location: time.UTC, Inverted: InvertedFlag})
		if rep.Inverted != 1 || ds.Len() != 2 {
			t.Fatalf("rep=%+v len=%d", rep, ds.Len())
		}
		st := Aggregate(ds.Intervals())
		if st[0].Count != 2 || st[0].Measured != 1 || st[0].TotalMinutes != 30 {
			t.Fatalf("flagged interval should be counted but not measured: %+v", st[0])
		}
	})

	t.Run("drop", func(t *testing.T) {
		ds, rep := Normalize(rows, Options{Location: time.UTC, Inverted: InvertedDrop})
		if ds.Len() != 1 || rep.Dropped() != 1 || rep.Inverted != 1 {
			t.Fatalf("rep=%+v len=%d", rep, ds.Len())
		}
	})

	t.Run("rollover", func(t *testing.T) {
		ds, _ := Normalize(rows, Options{Location: time.UTC, Inverted: InvertedRollover})
		for _, iv := range ds.Intervals() {
			if iv.Workload != "late" {
				continue
			}
			if m, ok := iv.Minutes(); !ok || m != 60 {
				t.Fatalf("rollover duration=%v,%v want 60", m, ok)
			}
		}
	})

	t.Run("keep", func(t *testing.T) {
		ds, _ := Normalize(rows, Options{Location: time.UTC, Inverted: InvertedKeep})
		st := Aggregate(ds.Intervals())
		if st[0].Measured != 2 || st[0].TotalMinutes != 30-1380 {
			t.Fatalf("keep should aggregate the negative duration: %+v", st[0])
		}
	})
}

func TestParseInvertedPolicy(t *testing.T) {
	if p, err := ParseInvertedPolicy(""); err != nil || p != InvertedFlag {
		t.Fatalf("default policy=%q err=%v", p, err)
	}
	if p, err := ParseInvertedPolicy(" Drop "); err != nil || p != InvertedDrop {
		t.Fatalf("policy=%q err=%v", p, err)
	}
	if _, err := ParseInvertedPolicy("explode"); err == nil {
		t.Fatalf("expected error")
	}
}
