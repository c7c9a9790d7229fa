package timeline

import (
	"fmt"
	"sort"
)

// Sequence assigns per-workload ordinals, display ids and categories to a
// filtered subset. The result is in canonical (day, workspace, start) order;
// ordinals follow that order and restart at 1 for every call.
func Sequence(in []Interval, opt Options) []Execution {
	opt = opt.withDefaults()

	sorted := append([]Interval(nil), in...)
	sortCanonical(sorted)

	counts := make(map[string]int, len(sorted))
	for _, iv := range sorted {
		counts[iv.Workload]++
	}

	seen := make(map[string]int, len(counts))
	out := make([]Execution, len(sorted))
	for i, iv := range sorted {
		seen[iv.Workload]++
		n := seen[iv.Workload]
		out[i] = Execution{
			Interval:  iv,
			Ordinal:   n,
			DisplayID: DisplayID(iv.Workspace, iv.Workload, n, counts[iv.Workload] > 1),
			Category:  Category(iv.Workspace, n, opt.KnownWorkspaces),
		}
	}
	return out
}

// DisplayID labels a timeline row. The ordinal suffix only appears when the
// workload runs more than once in the current selection.
func DisplayID(workspace, workload string, ordinal int, repeated bool) string {
	if repeated {
		return fmt.Sprintf("%s - %s (Ej. %d)", workspace, workload, ordinal)
	}
	return fmt.Sprintf("%s - %s", workspace, workload)
}

// Category is the color class of an execution. Known workspaces are split
// by run ordinal; any other workspace passes through unchanged.
func Category(workspace string, ordinal int, known []string) string {
	for _, k := range known {
		if k == workspace {
			return workspace + " - " + OrdinalLabel(ordinal)
		}
	}
	return workspace
}

func OrdinalLabel(n int) string {
	switch n {
	case 1:
		return "1st run"
	case 2:
		return "2nd run"
	default:
		return "3rd+ run"
	}
}

// sortByStart returns a copy ordered by start; ties keep input order.
func sortByStart(in []Execution) []Execution {
	out := append([]Execution(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
