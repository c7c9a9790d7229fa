package timeline

import (
	"math"
	"reflect"
	"testing"
)

func sampleDataset(t *testing.T) *Dataset {
	return mustDataset(t, utcOpts(),
		rec(1, "MAM", "sales", "2024-05-02", "08:00", "08:30"),
		rec(2, "MAM", "stock", "2024-05-02", "08:10", "08:55"),
		rec(3, "MAC", "crm", "2024-05-02", "13:00", "14:00"),
		rec(4, "MAM", "sales", "2024-05-02", "15:00", "15:20"),
		rec(5, "MAC", "crm", "2024-05-01", "09:00", "09:30"),
	)
}

func TestAggregate(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "a", "2024-05-02", "08:00", "08:30"),
		rec(2, "MAM", "b", "2024-05-02", "09:00", "09:45"),
		rec(3, "MAM", "c", "2024-05-02", "10:00", "11:00"),
		rec(4, "MAC", "d", "2024-05-02", "10:00", "11:00"),
	)
	st := Aggregate(ds.Intervals())
	if len(st) != 2 || st[0].Workspace != "MAC" || st[1].Workspace != "MAM" {
		t.Fatalf("stats=%+v", st)
	}
	mam := st[1]
	if mam.Count != 3 || mam.TotalMinutes != 135 || mam.MeanMinutes != 45 {
		t.Fatalf("MAM stats=%+v", mam)
	}
	if math.Abs(mam.Percent+st[0].Percent-100) > 1e-9 || mam.Percent != 75 {
		t.Fatalf("percent=%v/%v", mam.Percent, st[0].Percent)
	}
	if Aggregate(nil) != nil {
		t.Fatalf("aggregate of nothing should be nil")
	}
}

func TestBuildView(t *testing.T) {
	ds := sampleDataset(t)
	v := Build(ds, Selection{Day: day(t, "2024-05-02"), Period: PeriodAll}, utcOpts())
	if v.Empty() || len(v.Executions) != 4 {
		t.Fatalf("view has %d executions", len(v.Executions))
	}
	if len(v.Overlaps) != 1 || v.Overlaps[0].First.Workload != "sales" {
		t.Fatalf("overlaps=%+v", v.Overlaps)
	}
	if s, ok := v.Stat("MAM"); !ok || s.Count != 3 {
		t.Fatalf("MAM stat=%+v ok=%v", s, ok)
	}
	if len(v.Workspace("MAC")) != 1 {
		t.Fatalf("MAC executions=%d", len(v.Workspace("MAC")))
	}
	bs := v.ByStart()
	for i := 1; i < len(bs); i++ {
		if bs[i].Start.Before(bs[i-1].Start) {
			t.Fatalf("ByStart not sorted")
		}
	}
	if len(v.Ticks) == 0 {
		t.Fatalf("no ticks")
	}
}

func TestBuildEmptySelections(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "sales", "2024-05-02", "08:00", "08:30"),
	)
	pm := Build(ds, Selection{Day: day(t, "2024-05-02"), Period: PeriodPM}, utcOpts())
	if !pm.Empty() || pm.Overlaps != nil || pm.Stats != nil || pm.Ticks != nil {
		t.Fatalf("PM view should be empty: %+v", pm)
	}
	missing := Build(ds, Selection{Day: day(t, "1999-01-01")}, utcOpts())
	if !missing.Empty() {
		t.Fatalf("absent day should give an empty view")
	}
	if !Build(nil, Selection{}, Options{}).Empty() {
		t.Fatalf("nil dataset should give an empty view")
	}
}

func TestBuildIdempotentAndDatasetUntouched(t *testing.T) {
	ds := sampleDataset(t)
	before := ds.Intervals()
	sel := Selection{Day: day(t, "2024-05-02"), Period: PeriodAll}

	v1 := Build(ds, sel, utcOpts())
	v1.Executions[0].Workload = "mutated"
	v2 := Build(ds, sel, utcOpts())
	v3 := Build(ds, sel, utcOpts())

	if !reflect.DeepEqual(v2, v3) {
		t.Fatalf("repeated builds differ")
	}
	if !reflect.DeepEqual(before, ds.Intervals()) {
		t.Fatalf("dataset changed by view building")
	}
	for _, e := range v2.Executions {
		if e.Workload == "mutated" {
			t.Fatalf("view shares memory with dataset")
		}
	}
}

func TestParseSelection(t *testing.T) {
	ds := sampleDataset(t)
	sel, err := ParseSelection("", "pm", ds)
	if err != nil || sel.Day.String() != "2024-05-02" || sel.Period != PeriodPM {
		t.Fatalf("sel=%+v err=%v", sel, err)
	}
	if sel.Label() != "PM" || sel.String() != "2024-05-02 PM" {
		t.Fatalf("label=%q string=%q", sel.Label(), sel.String())
	}
	sel, err = ParseSelection("2024-05-01", "Día completo", ds)
	if err != nil || sel.Period != PeriodAll || sel.Label() != "full day" {
		t.Fatalf("sel=%+v err=%v", sel, err)
	}
	if _, err := ParseSelection("02/05/2024", "", ds); err == nil {
		t.Fatalf("expected strict day error")
	}
	if _, err := ParseSelection("", "noon", ds); err == nil {
		t.Fatalf("expected period error")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleDataset(t))
	if s.Records != 5 || s.Days != 2 || len(s.Workspaces) != 2 {
		t.Fatalf("summary=%+v", s)
	}
	if n := Summarize(nil); n.Records != 0 || n.Workspaces != nil {
		t.Fatalf("nil summary=%+v", n)
	}
}

func TestTicks(t *testing.T) {
	d := day(t, "2024-05-02")
	ticks := Ticks(execsOf(t, rec(1, "MAM", "a", "2024-05-02", "08:10", "09:40")))
	if len(ticks) != 2 {
		t.Fatalf("ticks=%v", ticks)
	}
	if !ticks[0].At.Equal(clock(t, d, "09:00")) || !ticks[0].Major {
		t.Fatalf("first tick=%+v", ticks[0])
	}
	if !ticks[1].At.Equal(clock(t, d, "09:30")) || ticks[1].Major {
		t.Fatalf("second tick=%+v", ticks[1])
	}

	onHour := Ticks(execsOf(t, rec(1, "MAM", "a", "2024-05-02", "08:00", "09:00")))
	if len(onHour) != 3 || !onHour[0].At.Equal(clock(t, d, "08:00")) {
		t.Fatalf("on-hour ticks=%v", onHour)
	}
}
