package timeline

import (
	"errors"
	"testing"
)

func TestFromTableAliases(t *testing.T) {
	header := []string{"Base de datos", " Workspace ", "fecha", "Hora inicio", "Hora fin", "extra"}
	rows := [][]string{
		{"sales", "MAM", "2024-05-02", "08:00:00", "08:30:00", "x"},
		{"", "", "", "", ""},
		{"stock", "MAC", "2024-05-02", "09:00:00"},
	}
	recs, err := FromTable(header, rows, Columns{})
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (blank row skipped)", len(recs))
	}
	if recs[0].Workload != "sales" || recs[0].Workspace != "MAM" || recs[0].Row != 1 {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Row != 3 || recs[1].End != "" {
		t.Fatalf("short row should be padded: %+v", recs[1])
	}
}

func TestFromTableMissingColumns(t *testing.T) {
	_, err := FromTable([]string{"workload_name", "workspace", "date"}, nil, Columns{})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("want *SchemaError, got %v", err)
	}
	if len(se.Missing) != 2 || se.Missing[0] != "start_time" || se.Missing[1] != "end_time" {
		t.Fatalf("missing=%v", se.Missing)
	}
}

func TestFromTableCustomAliases(t *testing.T) {
	cols := Columns{Workload: []string{"job"}, Start: []string{"begin"}, End: []string{"finish"}}
	header := []string{"job", "workspace", "date", "begin", "finish"}
	recs, err := FromTable(header, [][]string{{"a", "MAM", "2024-05-02", "1:00", "2:00"}}, cols)
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	if recs[0].Workload != "a" || recs[0].Start != "1:00" {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}
