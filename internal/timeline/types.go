package timeline

import "time"

// Period is the half-day bucket of an execution, derived from its start hour.
type Period string

const (
	PeriodAll Period = "ALL"
	PeriodAM  Period = "AM"
	PeriodPM  Period = "PM"
)

// PeriodOf returns AM for start hours 0-11 and PM otherwise.
func PeriodOf(t time.Time) Period {
	if t.Hour() < 12 {
		return PeriodAM
	}
	return PeriodPM
}

// Record is one raw row of the execution log, exactly as read from the table.
type Record struct {
	Row       int // 1-based data row (header excluded)
	Workload  string
	Workspace string
	Date      string
	Start     string
	End       string
}

// Interval is a Record whose date and clock fields resolved to instants.
type Interval struct {
	Row       int
	Workload  string
	Workspace string
	Day       Date
	Start     time.Time
	End       time.Time
	Period    Period

	// StartText and EndText keep the clock values as they appeared in the
	// source, for detail tables and exports.
	StartText string
	EndText   string

	// Inverted marks an interval whose end precedes its start under the
	// "flag" policy. Its duration is treated as unknown.
	Inverted bool
}

// Duration returns End-Start. ok is false when the duration is undefined.
func (iv Interval) Duration() (d time.Duration, ok bool) {
	if iv.Inverted || iv.Start.IsZero() || iv.End.IsZero() {
		return 0, false
	}
	return iv.End.Sub(iv.Start), true
}

// Minutes is Duration in (fractional) minutes.
func (iv Interval) Minutes() (float64, bool) {
	d, ok := iv.Duration()
	if !ok {
		return 0, false
	}
	return d.Minutes(), true
}

// Execution is an Interval placed in the context of one selection.
type Execution struct {
	Interval

	Ordinal   int
	DisplayID string
	Category  string
}

// Overlap reports two executions whose intervals intersect.
// First started no later than Second.
type Overlap struct {
	First  Execution
	Second Execution

	Start time.Time
	End   time.Time
}

func (o Overlap) Duration() time.Duration { return o.End.Sub(o.Start) }

// WorkspaceStats aggregates the executions of one workspace.
type WorkspaceStats struct {
	Workspace string
	Count     int
	Percent   float64

	// Measured is the number of executions with a defined duration;
	// only those contribute to TotalMinutes and MeanMinutes.
	Measured     int
	TotalMinutes float64
	MeanMinutes  float64
}
