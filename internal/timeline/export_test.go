package timeline

import (
	"bytes"
	"encoding/csv"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	ds, _ := Normalize([]Record{
		rec(1, "MAM", "sales", "2024-05-02", "08:00:00", "08:30:00"),
		rec(2, "MAM", "sales", "2024-05-02", "09:00:00", "08:00:00"),
	}, utcOpts())
	v := Build(ds, Selection{Day: day(t, "2024-05-02")}, utcOpts())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, v.Executions); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 || len(rows[0]) != len(csvHeader) || rows[0][0] != "workspace" {
		t.Fatalf("rows=%v", rows)
	}
	first := rows[1]
	if first[5] != "2024-05-02 08:00:00" || first[8] != "1" || first[9] != "MAM - sales (Ej. 1)" || first[11] != "30" {
		t.Fatalf("first row=%v", first)
	}
	if rows[2][11] != "" {
		t.Fatalf("inverted row should have a blank duration: %v", rows[2])
	}
}

func TestExportName(t *testing.T) {
	d := day(t, "2024-05-02")
	cases := map[Period]string{
		PeriodAll: "executions_2024-05-02_full_day.csv",
		PeriodAM:  "executions_2024-05-02_AM.csv",
		PeriodPM:  "executions_2024-05-02_PM.csv",
	}
	for p, want := range cases {
		if got := ExportName(Selection{Day: d, Period: p}); got != want {
			t.Fatalf("ExportName(%s)=%q want %q", p, got, want)
		}
	}
}
