package timeline

import "sort"

// Aggregate computes per-workspace counts, share of the total and duration
// statistics. Executions with an undefined duration are counted but left
// out of the mean and sum. Workspaces are returned in name order.
func Aggregate(in []Interval) []WorkspaceStats {
	if len(in) == 0 {
		return nil
	}
	by := make(map[string]*WorkspaceStats, 4)
	for _, iv := range in {
		st := by[iv.Workspace]
		if st == nil {
			st = &WorkspaceStats{Workspace: iv.Workspace}
			by[iv.Workspace] = st
		}
		st.Count++
		if m, ok := iv.Minutes(); ok {
			st.Measured++
			st.TotalMinutes += m
		}
	}

	total := float64(len(in))
	out := make([]WorkspaceStats, 0, len(by))
	for _, st := range by {
		st.Percent = float64(st.Count) / total * 100
		if st.Measured > 0 {
			st.MeanMinutes = st.TotalMinutes / float64(st.Measured)
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Workspace < out[j].Workspace })
	return out
}

// Summary describes a whole dataset, independent of any selection.
type Summary struct {
	Records    int
	Days       int
	Workspaces []WorkspaceStats
}

func Summarize(ds *Dataset) Summary {
	if ds == nil {
		return Summary{}
	}
	return Summary{
		Records:    len(ds.intervals),
		Days:       len(ds.days),
		Workspaces: Aggregate(ds.intervals),
	}
}

func intervalsOf(execs []Execution) []Interval {
	out := make([]Interval, len(execs))
	for i, e := range execs {
		out[i] = e.Interval
	}
	return out
}
