// Package render turns timeline views into Telegram HTML messages. Charts
// are drawn as monospace text inside <pre> blocks.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"runlens/internal/timeline"
	"runlens/pkg/tgui"
)

const (
	clockLayout = "15:04"
	stampLayout = "2006-01-02 15:04"
)

// Title is the bold heading of a view message.
func Title(kind string, sel timeline.Selection) tgui.H {
	return tgui.B(fmt.Sprintf("%s · %s", kind, sel))
}

// NoData is the message for an empty selection.
func NoData(sel timeline.Selection) string {
	return tgui.JoinH("\n",
		Title("Timeline", sel),
		tgui.I("No executions for this selection."),
	).String()
}

// Minutes formats a duration given in minutes as "45m" or "1h05m".
func Minutes(m float64) string {
	if math.IsNaN(m) {
		return "n/a"
	}
	neg := m < 0
	total := int(math.Round(math.Abs(m)))
	s := fmt.Sprintf("%dm", total)
	if total >= 60 {
		s = fmt.Sprintf("%dh%02dm", total/60, total%60)
	}
	if neg {
		s = "-" + s
	}
	return s
}

func span(start, end time.Time) string {
	return start.Format(clockLayout) + "–" + end.Format(clockLayout)
}

// Stats renders the per-workspace aggregate table.
func Stats(stats []timeline.WorkspaceStats) []string {
	lines := []string{
		tgui.PadRight("workspace", 12) + tgui.PadLeft("runs", 6) + tgui.PadLeft("%", 7) + tgui.PadLeft("avg", 8) + tgui.PadLeft("total", 9),
	}
	for _, s := range stats {
		avg, total := "n/a", "n/a"
		if s.Measured > 0 {
			avg, total = Minutes(s.MeanMinutes), Minutes(s.TotalMinutes)
		}
		lines = append(lines, tgui.PadRight(s.Workspace, 12)+
			tgui.PadLeft(fmt.Sprint(s.Count), 6)+
			tgui.PadLeft(fmt.Sprintf("%.1f", s.Percent), 7)+
			tgui.PadLeft(avg, 8)+
			tgui.PadLeft(total, 9))
	}
	return lines
}

// Days lists the available days, newest first, up to limit.
func Days(days []timeline.Date, limit int) string {
	if len(days) == 0 {
		return tgui.I("The dataset has no days.").String()
	}
	parts := []tgui.H{tgui.B(fmt.Sprintf("Available days (%d)", len(days)))}
	shown := days
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, d := range shown {
		parts = append(parts, tgui.Code(d.String()))
	}
	if len(shown) < len(days) {
		parts = append(parts, tgui.I(fmt.Sprintf("… and %d older", len(days)-len(shown))))
	}
	return tgui.JoinH("\n", parts...).String()
}

// Summary renders the dataset-wide metrics.
func Summary(sum timeline.Summary) []string {
	head := tgui.JoinH("\n",
		tgui.B("Dataset summary"),
		tgui.KV("records", sum.Records),
		tgui.KV("days", sum.Days),
	)
	if len(sum.Workspaces) == 0 {
		return []string{head.String()}
	}
	out := []string{head.String()}
	for _, c := range tgui.PreChunks(Stats(sum.Workspaces), 0) {
		out = append(out, c.String())
	}
	return out
}

// Selection renders the stats of one view, used by /summary with a
// selection.
func Selection(v *timeline.View) []string {
	if v.Empty() {
		return []string{NoData(v.Selection)}
	}
	head := tgui.JoinH("\n",
		Title("Summary", v.Selection),
		tgui.KV("executions", len(v.Executions)),
		tgui.KV("overlaps", len(v.Overlaps)),
	)
	out := []string{head.String()}
	for _, c := range tgui.PreChunks(Stats(v.Stats), 0) {
		out = append(out, c.String())
	}
	return out
}

func joinMessages(head tgui.H, lines []string) []string {
	out := []string{head.String()}
	for _, c := range tgui.PreChunks(lines, 0) {
		out = append(out, c.String())
	}
	return out
}

// Merge packs consecutive parts into as few messages as fit max bytes.
// Parts are never split, so each stays balanced HTML.
func Merge(parts []string, max int) []string {
	if max <= 0 {
		max = tgui.MaxMessageLen
	}
	var (
		out []string
		cur strings.Builder
	)
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p)+1 > max {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
