package timeline

// View is everything the presentation layer needs for one selection.
type View struct {
	Selection  Selection
	Executions []Execution // canonical (day, workspace, start) order
	Overlaps   []Overlap
	Stats      []WorkspaceStats
	Ticks      []Tick
}

// Build filters ds by sel and derives a fresh view. ds is not modified and
// concurrent Builds over the same dataset are safe.
func Build(ds *Dataset, sel Selection, opt Options) *View {
	opt = opt.withDefaults()
	execs := Sequence(Filter(ds, sel), opt)
	return &View{
		Selection:  sel,
		Executions: execs,
		Overlaps:   DetectOverlaps(execs, opt.Overlap),
		Stats:      Aggregate(intervalsOf(execs)),
		Ticks:      Ticks(execs),
	}
}

// Empty reports the "no data for this selection" state.
func (v *View) Empty() bool { return v == nil || len(v.Executions) == 0 }

// ByStart returns the executions ordered by start time, for detail tables.
func (v *View) ByStart() []Execution {
	if v == nil {
		return nil
	}
	return sortByStart(v.Executions)
}

// Workspace returns the executions of one workspace in canonical order.
func (v *View) Workspace(name string) []Execution {
	if v == nil {
		return nil
	}
	var out []Execution
	for _, e := range v.Executions {
		if e.Workspace == name {
			out = append(out, e)
		}
	}
	return out
}

// Stat returns the aggregate of one workspace.
func (v *View) Stat(workspace string) (WorkspaceStats, bool) {
	if v == nil {
		return WorkspaceStats{}, false
	}
	for _, s := range v.Stats {
		if s.Workspace == workspace {
			return s, true
		}
	}
	return WorkspaceStats{}, false
}
