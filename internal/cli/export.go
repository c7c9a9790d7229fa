package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"runlens/internal/timeline"
)

const (
	sheetExecutions = "Executions"
	sheetOverlaps   = "Overlaps"
)

func newExportCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the executions of one day as csv or xlsx",
		Long: `Write the sequenced executions of the selected day and period. The format
follows the --out extension: .xlsx adds an Overlaps sheet, anything else
is csv. Use --out - to write csv to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, _, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = timeline.ExportName(v.Selection)
			}
			if out == "-" {
				return timeline.WriteCSV(cmd.OutOrStdout(), v.Executions)
			}
			if strings.EqualFold(filepath.Ext(out), ".xlsx") {
				err = writeXLSX(out, v)
			} else {
				err = writeCSVFile(out, v)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.okStyle().Render(
				fmt.Sprintf("wrote %d executions to %s", len(v.Executions), out)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default executions_<day>_<period>.csv)")
	return cmd
}

func writeCSVFile(path string, v *timeline.View) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := timeline.WriteCSV(f, v.Executions); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

func writeXLSX(path string, v *timeline.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetExecutions); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	rows := [][]string{timeline.ExportHeader()}
	for _, e := range v.Executions {
		rows = append(rows, timeline.ExportRow(e))
	}
	if err := setRows(f, sheetExecutions, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetOverlaps); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	orows := [][]string{{"first", "second", "start", "end", "minutes"}}
	for _, o := range v.Overlaps {
		orows = append(orows, []string{
			o.First.DisplayID,
			o.Second.DisplayID,
			o.Start.Format(clockLayout),
			o.End.Format(clockLayout),
			fmt.Sprintf("%.0f", o.Duration().Minutes()),
		})
	}
	if err := setRows(f, sheetOverlaps, orows); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		vals := make([]any, len(r))
		for j, s := range r {
			vals[j] = s
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("export %s: %w", sheet, err)
		}
	}
	return nil
}
