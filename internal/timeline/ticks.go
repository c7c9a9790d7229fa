package timeline

import "time"

const tickStep = 30 * time.Minute

// Tick is a vertical gridline of the timeline chart.
type Tick struct {
	At    time.Time
	Major bool // on the hour
}

// Ticks returns half-hour gridlines covering execs: from the first full hour
// at or after the earliest start up to the latest end.
func Ticks(execs []Execution) []Tick {
	if len(execs) == 0 {
		return nil
	}
	first, last := execs[0].Start, execs[0].End
	for _, e := range execs[1:] {
		if e.Start.Before(first) {
			first = e.Start
		}
		if e.End.After(last) {
			last = e.End
		}
	}

	at := time.Date(first.Year(), first.Month(), first.Day(), first.Hour(), 0, 0, 0, first.Location())
	if first.Minute() > 0 {
		at = at.Add(time.Hour)
	}
	var out []Tick
	for ; !at.After(last); at = at.Add(tickStep) {
		out = append(out, Tick{At: at, Major: at.Minute() == 0})
	}
	return out
}
