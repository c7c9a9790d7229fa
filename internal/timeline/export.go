package timeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const stampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"workspace", "workload_name", "date", "start_time", "end_time",
	"start", "end", "period", "ordinal", "display_id", "category", "duration_min",
}

// ExportHeader is the column header of the execution export.
func ExportHeader() []string { return append([]string(nil), csvHeader...) }

// ExportRow is the export form of one execution. Undefined durations are
// left blank.
func ExportRow(e Execution) []string {
	dur := ""
	if m, ok := e.Minutes(); ok {
		dur = strconv.FormatFloat(m, 'f', -1, 64)
	}
	return []string{
		e.Workspace,
		e.Workload,
		e.Day.String(),
		e.StartText,
		e.EndText,
		e.Start.Format(stampLayout),
		e.End.Format(stampLayout),
		string(e.Period),
		strconv.Itoa(e.Ordinal),
		e.DisplayID,
		e.Category,
		dur,
	}
}

// WriteCSV writes one row per execution, header first.
func WriteCSV(w io.Writer, execs []Execution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range execs {
		if err := cw.Write(ExportRow(e)); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.Row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportName is the download file name for a selection, e.g.
// executions_2024-05-02_AM.csv.
func ExportName(sel Selection) string {
	return "executions_" + sel.Day.String() + "_" + strings.ReplaceAll(sel.Label(), " ", "_") + ".csv"
}
