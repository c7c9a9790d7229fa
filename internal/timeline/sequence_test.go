package timeline

import "testing"

func TestSequenceOrdinalsAndLabels(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "sales", "2024-05-02", "06:00", "06:30"),
		rec(2, "MAM", "sales", "2024-05-02", "13:00", "13:20"),
		rec(3, "MAM", "sales", "2024-05-02", "18:00", "18:10"),
		rec(4, "MAC", "crm", "2024-05-02", "07:00", "07:30"),
		rec(5, "FIN", "ledger", "2024-05-02", "09:00", "09:30"),
	)
	sel := Selection{Day: day(t, "2024-05-02"), Period: PeriodAll}
	execs := Sequence(Filter(ds, sel), utcOpts())
	if len(execs) != 5 {
		t.Fatalf("got %d executions", len(execs))
	}

	want := []struct{ id, cat string }{
		{"FIN - ledger", "FIN"},
		{"MAC - crm", "MAC - 1st run"},
		{"MAM - sales (Ej. 1)", "MAM - 1st run"},
		{"MAM - sales (Ej. 2)", "MAM - 2nd run"},
		{"MAM - sales (Ej. 3)", "MAM - 3rd+ run"},
	}
	for i, w := range want {
		if execs[i].DisplayID != w.id || execs[i].Category != w.cat {
			t.Fatalf("exec %d = %q/%q want %q/%q", i, execs[i].DisplayID, execs[i].Category, w.id, w.cat)
		}
	}

	// every ordinal lies in 1..count and is unique per workload
	seen := map[string]map[int]bool{}
	count := map[string]int{}
	for _, e := range execs {
		count[e.Workload]++
	}
	for _, e := range execs {
		if e.Ordinal < 1 || e.Ordinal > count[e.Workload] {
			t.Fatalf("ordinal %d out of range for %s", e.Ordinal, e.Workload)
		}
		if seen[e.Workload] == nil {
			seen[e.Workload] = map[int]bool{}
		}
		if seen[e.Workload][e.Ordinal] {
			t.Fatalf("duplicate ordinal %d for %s", e.Ordinal, e.Workload)
		}
		seen[e.Workload][e.Ordinal] = true
	}
}

func TestSequenceRenumbersPerSelection(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "sales", "2024-05-02", "06:00", "06:30"),
		rec(2, "MAM", "sales", "2024-05-02", "13:00", "13:20"),
		rec(3, "MAM", "sales", "2024-05-02", "18:00", "18:10"),
	)
	v := Build(ds, Selection{Day: day(t, "2024-05-02"), Period: PeriodPM}, utcOpts())
	if len(v.Executions) != 2 {
		t.Fatalf("got %d PM executions", len(v.Executions))
	}
	if v.Executions[0].Ordinal != 1 || v.Executions[1].Ordinal != 2 {
		t.Fatalf("PM ordinals = %d,%d", v.Executions[0].Ordinal, v.Executions[1].Ordinal)
	}
	if v.Executions[0].Category != "MAM - 1st run" {
		t.Fatalf("category=%q", v.Executions[0].Category)
	}

	// a workload running once in the selection has no suffix
	v = Build(ds, Selection{Day: day(t, "2024-05-02"), Period: PeriodAM}, utcOpts())
	if len(v.Executions) != 1 || v.Executions[0].DisplayID != "MAM - sales" {
		t.Fatalf("AM view = %+v", v.Executions)
	}
}

func TestSequenceWorkspaceOrderDrivesOrdinals(t *testing.T) {
	// the same workload name in two workspaces shares one counter; MAC sorts
	// before MAM, so its run is first even though it started later.
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "shared", "2024-05-02", "07:00", "07:10"),
		rec(2, "MAC", "shared", "2024-05-02", "09:00", "09:10"),
	)
	execs := Sequence(ds.Intervals(), utcOpts())
	if execs[0].Workspace != "MAC" || execs[0].Ordinal != 1 {
		t.Fatalf("first=%s #%d", execs[0].Workspace, execs[0].Ordinal)
	}
	if execs[1].Workspace != "MAM" || execs[1].Ordinal != 2 {
		t.Fatalf("second=%s #%d", execs[1].Workspace, execs[1].Ordinal)
	}
}

func TestSequenceStableTies(t *testing.T) {
	ds := mustDataset(t, utcOpts(),
		rec(1, "MAM", "x", "2024-05-02", "08:00", "08:10"),
		rec(2, "MAM", "x", "2024-05-02", "08:00", "08:20"),
	)
	execs := Sequence(ds.Intervals(), utcOpts())
	if execs[0].Row != 1 || execs[1].Row != 2 {
		t.Fatalf("tie order rows=%d,%d", execs[0].Row, execs[1].Row)
	}
}

func TestColor(t *testing.T) {
	if Color("MAM - 1st run") != "#1f77b4" || Color("MAC - 3rd+ run") != "#ffd699" {
		t.Fatalf("palette mismatch")
	}
	if Color("FIN") != "#2ca02c" {
		t.Fatalf("fallback color=%s", Color("FIN"))
	}
}
