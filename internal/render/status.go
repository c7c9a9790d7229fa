package render

import (
	"fmt"
	"time"

	"runlens/internal/loader"
	"runlens/pkg/tgui"
)

// Loaded confirms a successful load or upload.
func Loaded(snap *loader.Snapshot) string {
	rep := snap.Report
	parts := []tgui.H{
		tgui.B("Dataset loaded"),
		tgui.KV("file", snap.Name),
		tgui.KV("origin", snap.Origin),
		tgui.KV("records", rep.Kept),
	}
	if rep.Dropped() > 0 {
		parts = append(parts, tgui.KV("dropped rows", fmt.Sprintf("%d (date %d, start %d, end %d)",
			rep.Dropped(), rep.InvalidDate, rep.InvalidStart, rep.InvalidEnd)))
	}
	if rep.Inverted > 0 {
		parts = append(parts, tgui.KV("end before start", rep.Inverted))
	}
	parts = append(parts, tgui.KV("days", len(snap.Dataset.Days())))
	if !snap.Dataset.Latest().IsZero() {
		parts = append(parts, tgui.KV("latest", snap.Dataset.Latest()))
	}
	return tgui.JoinH("\n", parts...).String()
}

// Status reports the loader state; extra lines (already HTML) are
// appended, for instance scheduled jobs.
func Status(st loader.Status, now time.Time, extra ...tgui.H) string {
	parts := []tgui.H{tgui.B("Status")}
	if st.Snapshot == nil {
		parts = append(parts, tgui.I("No dataset loaded. Send the .xlsx or .csv file to load one."))
	} else {
		s := st.Snapshot
		parts = append(parts,
			tgui.KV("dataset", s.Name),
			tgui.KV("origin", s.Origin),
			tgui.KV("records", s.Report.Kept),
			tgui.KV("loaded", fmt.Sprintf("%s (%s ago)", s.LoadedAt.Format(stampLayout), Age(now.Sub(s.LoadedAt)))),
			tgui.KV("id", s.ID),
		)
		if st.Stale {
			parts = append(parts, tgui.Esc("⚠️ serving the previous dataset after a failed reload"))
		}
	}
	if st.LastErr != nil {
		parts = append(parts, tgui.KV("last error", st.LastErr.Error()))
	}
	if !st.LastAttempt.IsZero() {
		parts = append(parts, tgui.KV("last fetch", st.LastAttempt.Format(stampLayout)))
	}
	parts = append(parts, extra...)
	return tgui.JoinH("\n", parts...).String()
}

// Age formats an elapsed duration coarsely ("45s", "12m", "3h").
func Age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
