package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"runlens/internal/loader"
	"runlens/internal/timeline"
)

func sampleView(t *testing.T, period timeline.Period) *timeline.View {
	t.Helper()
	recs := []timeline.Record{
		{Row: 1, Workload: "sales", Workspace: "MAM", Date: "2024-05-02", Start: "08:00", End: "09:00"},
		{Row: 2, Workload: "crm", Workspace: "MAC", Date: "2024-05-02", Start: "08:30", End: "09:30"},
		{Row: 3, Workload: "sales", Workspace: "MAM", Date: "2024-05-02", Start: "13:00", End: "13:45"},
		{Row: 4, Workload: "old", Workspace: "MAM", Date: "2024-05-01", Start: "10:00", End: "10:10"},
	}
	opt := timeline.Options{Location: time.UTC}
	ds, _ := timeline.Normalize(recs, opt)
	day, _ := timeline.ParseDay("2024-05-02")
	return timeline.Build(ds, timeline.Selection{Day: day, Period: period}, opt)
}

func TestMinutes(t *testing.T) {
	cases := map[float64]string{0: "0m", 45: "45m", 60: "1h00m", 135: "2h15m", -5: "-5m", 29.6: "30m"}
	for in, want := range cases {
		if got := Minutes(in); got != want {
			t.Fatalf("Minutes(%v)=%q want %q", in, got, want)
		}
	}
}

func TestGanttDrawsOneRowPerExecution(t *testing.T) {
	v := sampleView(t, timeline.PeriodAll)
	msgs := Gantt(v, 30)
	all := strings.Join(msgs, "\n")
	if !strings.Contains(all, "2024-05-02 full day") {
		t.Fatalf("missing title: %s", all)
	}
	if strings.Count(all, "█") == 0 {
		t.Fatalf("no bars drawn")
	}
	for _, e := range v.Executions {
		if !strings.Contains(all, e.DisplayID) {
			t.Fatalf("missing row for %q", e.DisplayID)
		}
	}
	if !strings.Contains(all, "MAM - 1st run") {
		t.Fatalf("legend missing: %s", all)
	}
}

func TestBoundsFloorToLocalHour(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2024, 5, 2, 8, 10, 0, 0, loc)
	execs := []timeline.Execution{{Interval: timeline.Interval{Start: start, End: start.Add(40 * time.Minute)}}}
	lo, hi := bounds(execs)
	if lo.Hour() != 8 || lo.Minute() != 0 {
		t.Fatalf("lo=%s want 08:00 local", lo.Format("15:04"))
	}
	if !hi.Equal(start.Add(40 * time.Minute)) {
		t.Fatalf("hi=%s", hi)
	}
}

func TestGanttEmpty(t *testing.T) {
	v := sampleView(t, timeline.PeriodAll)
	empty := &timeline.View{Selection: v.Selection}
	msgs := Gantt(empty, 30)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "No executions") {
		t.Fatalf("msgs=%v", msgs)
	}
}

func TestOverlapsAndDigest(t *testing.T) {
	v := sampleView(t, timeline.PeriodAM)
	if len(v.Overlaps) != 1 {
		t.Fatalf("overlaps=%d", len(v.Overlaps))
	}
	msgs := Overlaps(v)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "08:30–09:00 30m") {
		t.Fatalf("msgs=%v", msgs)
	}

	pm := sampleView(t, timeline.PeriodPM)
	if got := Overlaps(pm); !strings.Contains(got[0], "No overlapping") {
		t.Fatalf("pm=%v", got)
	}

	d := strings.Join(Digest(v), "\n")
	if !strings.Contains(d, "Daily digest · 2024-05-02") || !strings.Contains(d, "<pre>") {
		t.Fatalf("digest=%s", d)
	}
}

func TestStatsTable(t *testing.T) {
	v := sampleView(t, timeline.PeriodAll)
	lines := Stats(v.Stats)
	if len(lines) != 1+len(v.Stats) {
		t.Fatalf("lines=%v", lines)
	}
	if !strings.HasPrefix(lines[1], "MAC") || !strings.Contains(lines[1], "1h00m") {
		t.Fatalf("row=%q", lines[1])
	}
}

func TestDaysLimit(t *testing.T) {
	var days []timeline.Date
	for i := 0; i < 5; i++ {
		d, _ := timeline.ParseDay("2024-05-01")
		days = append(days, d.AddDays(-i))
	}
	got := Days(days, 3)
	if strings.Count(got, "<code>") != 3 || !strings.Contains(got, "2 older") {
		t.Fatalf("days=%s", got)
	}
}

func TestMergeKeepsPartsWhole(t *testing.T) {
	parts := []string{strings.Repeat("a", 40), strings.Repeat("b", 40), "", strings.Repeat("c", 40)}
	got := Merge(parts, 90)
	if len(got) != 2 || got[0] != parts[0]+"\n"+parts[1] || got[1] != parts[3] {
		t.Fatalf("merge=%q", got)
	}
}

func TestStatusWithoutDataset(t *testing.T) {
	st := loader.Status{LastErr: errors.New("http 403"), LastAttempt: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)}
	got := Status(st, time.Now())
	if !strings.Contains(got, "No dataset loaded") || !strings.Contains(got, "http 403") {
		t.Fatalf("status=%s", got)
	}
}
