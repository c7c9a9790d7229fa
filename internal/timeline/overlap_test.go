package timeline

import (
	"testing"
	"time"
)

func execsOf(t *testing.T, rs ...Record) []Execution {
	t.Helper()
	ds := mustDataset(t, utcOpts(), rs...)
	return Sequence(ds.Intervals(), utcOpts())
}

func TestOverlapBoundary(t *testing.T) {
	d := day(t, "2024-05-02")
	for _, mode := range []OverlapMode{OverlapSweep, OverlapAdjacent} {
		ov := DetectOverlaps(execsOf(t,
			rec(1, "MAM", "a", "2024-05-02", "08:00", "09:00"),
			rec(2, "MAM", "b", "2024-05-02", "08:30", "09:30"),
		), mode)
		if len(ov) != 1 {
			t.Fatalf("%s: got %d overlaps", mode, len(ov))
		}
		if !ov[0].Start.Equal(clock(t, d, "08:30")) || !ov[0].End.Equal(clock(t, d, "09:00")) {
			t.Fatalf("%s: window %s-%s", mode, ov[0].Start, ov[0].End)
		}
		if ov[0].Duration() != 30*time.Minute {
			t.Fatalf("%s: duration %s", mode, ov[0].Duration())
		}
		if ov[0].First.Workload != "a" || ov[0].Second.Workload != "b" {
			t.Fatalf("%s: pair order %s,%s", mode, ov[0].First.Workload, ov[0].Second.Workload)
		}

		touching := DetectOverlaps(execsOf(t,
			rec(1, "MAM", "a", "2024-05-02", "08:00", "09:00"),
			rec(2, "MAM", "b", "2024-05-02", "09:00", "09:30"),
		), mode)
		if len(touching) != 0 {
			t.Fatalf("%s: touching intervals reported as overlap", mode)
		}
	}
}

func TestOverlapNested(t *testing.T) {
	rs := []Record{
		rec(1, "MAM", "a", "2024-05-02", "08:00", "12:00"),
		rec(2, "MAM", "b", "2024-05-02", "09:00", "10:00"),
		rec(3, "MAM", "c", "2024-05-02", "11:00", "11:30"),
	}

	adj := DetectOverlaps(execsOf(t, rs...), OverlapAdjacent)
	if len(adj) != 1 || adj[0].First.Workload != "a" || adj[0].Second.Workload != "b" {
		t.Fatalf("adjacent = %+v", adj)
	}

	sw := DetectOverlaps(execsOf(t, rs...), OverlapSweep)
	if len(sw) != 2 {
		t.Fatalf("sweep found %d overlaps, want 2", len(sw))
	}
	if sw[0].Second.Workload != "b" || sw[1].Second.Workload != "c" {
		t.Fatalf("sweep order %s,%s", sw[0].Second.Workload, sw[1].Second.Workload)
	}
	for _, o := range sw {
		if o.First.Workload != "a" {
			t.Fatalf("unexpected pair %s/%s", o.First.Workload, o.Second.Workload)
		}
		if !o.Start.Before(o.End) {
			t.Fatalf("empty overlap window")
		}
	}
}

func TestOverlapSweepMatchesBruteForce(t *testing.T) {
	execs := execsOf(t,
		rec(1, "MAM", "a", "2024-05-02", "08:00", "10:00"),
		rec(2, "MAC", "b", "2024-05-02", "08:15", "08:45"),
		rec(3, "MAM", "c", "2024-05-02", "08:30", "09:15"),
		rec(4, "MAC", "d", "2024-05-02", "09:10", "09:20"),
		rec(5, "MAM", "e", "2024-05-02", "10:00", "10:30"),
		rec(6, "FIN", "f", "2024-05-02", "10:05", "10:06"),
	)
	want := 0
	for i := range execs {
		for j := i + 1; j < len(execs); j++ {
			a, b := execs[i], execs[j]
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				want++
			}
		}
	}
	got := DetectOverlaps(execs, OverlapSweep)
	if len(got) != want {
		t.Fatalf("sweep=%d brute force=%d", len(got), want)
	}
	for k := 1; k < len(got); k++ {
		if got[k].Second.Start.Before(got[k-1].Second.Start) {
			t.Fatalf("overlaps not ordered by later start")
		}
	}
}

func TestOverlapSmallInputs(t *testing.T) {
	if DetectOverlaps(nil, OverlapSweep) != nil {
		t.Fatalf("nil input")
	}
	one := execsOf(t, rec(1, "MAM", "a", "2024-05-02", "08:00", "09:00"))
	if len(DetectOverlaps(one, OverlapSweep)) != 0 {
		t.Fatalf("single execution overlaps")
	}
}

func TestParseOverlapMode(t *testing.T) {
	if m, err := ParseOverlapMode(""); err != nil || m != OverlapSweep {
		t.Fatalf("default mode=%q err=%v", m, err)
	}
	if m, err := ParseOverlapMode("ADJACENT"); err != nil || m != OverlapAdjacent {
		t.Fatalf("mode=%q err=%v", m, err)
	}
	if _, err := ParseOverlapMode("pairs"); err == nil {
		t.Fatalf("expected error")
	}
}
