package render

import (
	"fmt"
	"time"

	"runlens/internal/timeline"
	"runlens/pkg/tgui"
)

const (
	labelWidth   = 18
	DefaultWidth = 36
)

// Gantt draws one bar per execution over a shared time axis as HTML
// messages for the chat.
func Gantt(v *timeline.View, width int) []string {
	if v.Empty() {
		return []string{NoData(v.Selection)}
	}
	lo, hi := bounds(v.Executions)
	head := tgui.JoinH("\n",
		Title("Timeline", v.Selection),
		tgui.Esc(fmt.Sprintf("%d executions · %s", len(v.Executions), span(lo, hi))),
	)
	out := joinMessages(head, GanttRows(v, width))
	if legend := Legend(v.Executions); legend != "" {
		out = append(out, legend)
	}
	return out
}

// GanttRows returns the plain-text chart: two axis lines then one row per
// execution. The axis starts at the hour of the earliest start and ends at
// the latest end. Inverted executions are marked with "!" at their start.
func GanttRows(v *timeline.View, width int) []string {
	if v.Empty() {
		return nil
	}
	if width < 12 {
		width = DefaultWidth
	}
	lo, hi := bounds(v.Executions)
	scale := func(t time.Time) int {
		c := int(float64(t.Sub(lo)) / float64(hi.Sub(lo)) * float64(width))
		return clamp(c, 0, width-1)
	}

	lines := []string{axisLabels(v.Ticks, scale, width), axisLine(v.Ticks, scale, width)}
	for _, e := range v.Executions {
		row := make([]rune, width)
		for i := range row {
			row[i] = ' '
		}
		from := scale(e.Start)
		if e.Inverted || e.End.Before(e.Start) {
			row[from] = '!'
		} else {
			to := scale(e.End)
			if to <= from {
				to = from + 1
			}
			for i := from; i < to && i < width; i++ {
				row[i] = '█'
			}
		}
		lines = append(lines, tgui.PadRight(e.DisplayID, labelWidth)+"|"+string(row))
	}
	return lines
}

// Span is the human form of a time range, e.g. "08:00–11:30".
func Span(v *timeline.View) string {
	if v.Empty() {
		return ""
	}
	lo, hi := bounds(v.Executions)
	return span(lo, hi)
}

// Legend lists the categories present with their chart color.
func Legend(execs []timeline.Execution) string {
	seen := map[string]bool{}
	var parts []tgui.H
	for _, e := range execs {
		if seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		parts = append(parts, tgui.Esc(fmt.Sprintf("%s %s", timeline.Color(e.Category), e.Category)))
	}
	if len(parts) == 0 {
		return ""
	}
	return tgui.JoinH("\n", append([]tgui.H{tgui.I("categories")}, parts...)...).String()
}

func bounds(execs []timeline.Execution) (lo, hi time.Time) {
	lo, hi = execs[0].Start, execs[0].End
	for _, e := range execs {
		if e.Start.Before(lo) {
			lo = e.Start
		}
		if e.End.After(hi) {
			hi = e.End
		}
		if e.Start.After(hi) {
			hi = e.Start
		}
	}
	// floor to the local hour, half-hour zones included
	lo = time.Date(lo.Year(), lo.Month(), lo.Day(), lo.Hour(), 0, 0, 0, lo.Location())
	if !hi.After(lo) {
		hi = lo.Add(time.Hour)
	}
	return lo, hi
}

func axisLine(ticks []timeline.Tick, scale func(time.Time) int, width int) string {
	row := make([]rune, width)
	for i := range row {
		row[i] = '─'
	}
	for _, t := range ticks {
		if t.Major {
			row[scale(t.At)] = '┼'
		} else {
			row[scale(t.At)] = '┬'
		}
	}
	return tgui.PadRight("", labelWidth) + "+" + string(row)
}

func axisLabels(ticks []timeline.Tick, scale func(time.Time) int, width int) string {
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}
	next := 0
	for _, t := range ticks {
		if !t.Major {
			continue
		}
		c := scale(t.At)
		label := []rune(t.At.Format("15h"))
		if c < next || c+len(label) > width {
			continue
		}
		copy(row[c:], label)
		next = c + len(label) + 1
	}
	return tgui.PadRight("", labelWidth) + " " + string(row)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
