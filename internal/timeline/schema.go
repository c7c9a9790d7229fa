package timeline

import (
	"fmt"
	"strings"
)

// Columns lists the accepted header aliases for each required field.
// Matching is case-insensitive on trimmed header cells; the first alias
// found wins.
type Columns struct {
	Workload  []string `json:"workload,omitempty"`
	Workspace []string `json:"workspace,omitempty"`
	Date      []string `json:"date,omitempty"`
	Start     []string `json:"start,omitempty"`
	End       []string `json:"end,omitempty"`
}

// DefaultColumns covers the canonical names and the headers of the
// spreadsheet export the tool was built around.
func DefaultColumns() Columns {
	return Columns{
		Workload:  []string{"workload_name", "Nombre Modelo Semántico", "Base de datos", "database", "semantic_model"},
		Workspace: []string{"workspace"},
		Date:      []string{"date", "fecha"},
		Start:     []string{"start_time", "Hora inicio"},
		End:       []string{"end_time", "Hora fin"},
	}
}

// Merge fills empty alias lists from def.
func (c Columns) Merge(def Columns) Columns {
	if len(c.Workload) == 0 {
		c.Workload = def.Workload
	}
	if len(c.Workspace) == 0 {
		c.Workspace = def.Workspace
	}
	if len(c.Date) == 0 {
		c.Date = def.Date
	}
	if len(c.Start) == 0 {
		c.Start = def.Start
	}
	if len(c.End) == 0 {
		c.End = def.End
	}
	return c
}

// SchemaError reports a table that lacks required columns.
// It is fatal for the whole table, never per row.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing required columns %s (header: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

type columnIndex struct {
	workload, workspace, date, start, end int
}

func (c Columns) resolve(header []string) (columnIndex, error) {
	c = c.Merge(DefaultColumns())
	var (
		idx     columnIndex
		missing []string
	)
	find := func(field string, aliases []string) int {
		for _, a := range aliases {
			a = strings.TrimSpace(a)
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), a) {
					return i
				}
			}
		}
		missing = append(missing, field)
		return -1
	}
	idx.workload = find("workload_name", c.Workload)
	idx.workspace = find("workspace", c.Workspace)
	idx.date = find("date", c.Date)
	idx.start = find("start_time", c.Start)
	idx.end = find("end_time", c.End)
	if len(missing) > 0 {
		return columnIndex{}, &SchemaError{Missing: missing, Header: append([]string(nil), header...)}
	}
	return idx, nil
}

// FromTable maps a header + rows table onto Records.
// Rows whose cells are all blank are skipped; short rows are padded.
func FromTable(header []string, rows [][]string, cols Columns) ([]Record, error) {
	idx, err := cols.resolve(header)
	if err != nil {
		return nil, err
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]Record, 0, len(rows))
	for n, row := range rows {
		if blankRow(row) {
			continue
		}
		out = append(out, Record{
			Row:       n + 1,
			Workload:  cell(row, idx.workload),
			Workspace: cell(row, idx.workspace),
			Date:      cell(row, idx.date),
			Start:     cell(row, idx.start),
			End:       cell(row, idx.end),
		})
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
