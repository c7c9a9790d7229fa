package render

import (
	"fmt"

	"runlens/internal/timeline"
	"runlens/pkg/tgui"
)

// Overlaps lists every overlapping pair of the view. Each pair is one
// line so long lists split cleanly between messages.
func Overlaps(v *timeline.View) []string {
	if v.Empty() {
		return []string{NoData(v.Selection)}
	}
	if len(v.Overlaps) == 0 {
		return []string{tgui.JoinH("\n",
			Title("Overlaps", v.Selection),
			tgui.Esc("✅ No overlapping executions."),
		).String()}
	}
	parts := []string{tgui.JoinH("\n",
		Title("Overlaps", v.Selection),
		tgui.Esc(fmt.Sprintf("⚠️ %d overlapping pairs", len(v.Overlaps))),
	).String()}
	for _, o := range v.Overlaps {
		parts = append(parts, OverlapLine(o).String())
	}
	return Merge(parts, 0)
}

// OverlapLine renders one pair: both executions and the shared window.
func OverlapLine(o timeline.Overlap) tgui.H {
	return tgui.JoinH(" ",
		tgui.Esc("•"),
		tgui.B(o.First.DisplayID),
		tgui.Esc(fmt.Sprintf("(%s)", span(o.First.Start, o.First.End))),
		tgui.Esc("×"),
		tgui.B(o.Second.DisplayID),
		tgui.Esc(fmt.Sprintf("(%s)", span(o.Second.Start, o.Second.End))),
		tgui.Esc("→"),
		tgui.Code(fmt.Sprintf("%s %s", span(o.Start, o.End), Minutes(o.Duration().Minutes()))),
	)
}

// Digest is the scheduled overlap report for one day.
func Digest(v *timeline.View) []string {
	head := tgui.B(fmt.Sprintf("Daily digest · %s", v.Selection.Day))
	if v.Empty() {
		return []string{tgui.JoinH("\n", head, tgui.I("No executions recorded.")).String()}
	}
	parts := []string{tgui.JoinH("\n",
		head,
		tgui.KV("executions", len(v.Executions)),
		tgui.KV("overlaps", len(v.Overlaps)),
	).String()}
	for _, o := range v.Overlaps {
		parts = append(parts, OverlapLine(o).String())
	}
	for _, c := range tgui.PreChunks(Stats(v.Stats), 0) {
		parts = append(parts, c.String())
	}
	return Merge(parts, 0)
}
