package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"runlens/internal/render"
	"runlens/internal/timeline"
)

const clockLayout = "15:04"

func newDaysCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "days",
		Short: "List the days present in the log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, _, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			days := snap.Dataset.Days()
			printTitle(w, "Days", fmt.Sprintf("%d days · %s", len(days), snap.Name))
			for i, d := range days {
				if limit > 0 && i == limit {
					fmt.Fprintln(w, defaultTheme.hintStyle().Render(fmt.Sprintf("… %d more", len(days)-limit)))
					break
				}
				fmt.Fprintln(w, d.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max days to list (0 = all)")
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	var whole bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Per-workspace counts and durations",
		Long: `Print run counts, share and durations per workspace for the selected
day and period. Use --all-days for the whole log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if whole {
				snap, _, err := opts.load(cmd.Context())
				if err != nil {
					return err
				}
				sum := timeline.Summarize(snap.Dataset)
				printTitle(w, "Summary", fmt.Sprintf("%d records · %d days · %d dropped", sum.Records, sum.Days, snap.Report.Dropped()))
				printTable(w, render.Stats(sum.Workspaces))
				return nil
			}
			v, _, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			printTitle(w, "Summary · "+v.Selection.String(), fmt.Sprintf("%d executions · %d overlaps", len(v.Executions), len(v.Overlaps)))
			if v.Empty() {
				fmt.Fprintln(w, defaultTheme.hintStyle().Render("no executions for this selection"))
				return nil
			}
			printTable(w, render.Stats(v.Stats))
			return nil
		},
	}
	cmd.Flags().BoolVar(&whole, "all-days", false, "summarize the whole log")
	return cmd
}

func newGanttCmd(opts *options) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:     "gantt",
		Aliases: []string{"timeline"},
		Short:   "Draw the execution timeline of one day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, _, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printTitle(w, "Timeline · "+v.Selection.String(), render.Span(v))
			if v.Empty() {
				fmt.Fprintln(w, defaultTheme.hintStyle().Render("no executions for this selection"))
				return nil
			}
			bar := lipgloss.NewStyle().Foreground(defaultTheme.Bar)
			inv := lipgloss.NewStyle().Foreground(defaultTheme.Inverse).Bold(true)
			for _, line := range render.GanttRows(v, width) {
				label, chart, ok := strings.Cut(line, "|")
				if !ok {
					fmt.Fprintln(w, line)
					continue
				}
				chart = strings.ReplaceAll(chart, "█", bar.Render("█"))
				chart = strings.ReplaceAll(chart, "!", inv.Render("!"))
				fmt.Fprintln(w, label+"|"+chart)
			}
			if n := len(v.Overlaps); n > 0 {
				fmt.Fprintln(w, defaultTheme.warnStyle().Render(fmt.Sprintf("%d overlapping pairs (see: runlens-report overlaps)", n)))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 60, "chart width in columns")
	return cmd
}

func newOverlapsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "overlaps",
		Short: "List overlapping executions of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, _, err := opts.view(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printTitle(w, "Overlaps · "+v.Selection.String(), "")
			if v.Empty() {
				fmt.Fprintln(w, defaultTheme.hintStyle().Render("no executions for this selection"))
				return nil
			}
			if len(v.Overlaps) == 0 {
				fmt.Fprintln(w, defaultTheme.okStyle().Render("no overlapping executions"))
				return nil
			}
			fmt.Fprintln(w, defaultTheme.warnStyle().Render(fmt.Sprintf("%d overlapping pairs", len(v.Overlaps))))
			for _, o := range v.Overlaps {
				fmt.Fprintln(w, overlapLine(o))
			}
			return nil
		},
	}
}

func overlapLine(o timeline.Overlap) string {
	return fmt.Sprintf("%s (%s–%s) × %s (%s–%s) → %s–%s %s",
		o.First.DisplayID, o.First.Start.Format(clockLayout), o.First.End.Format(clockLayout),
		o.Second.DisplayID, o.Second.Start.Format(clockLayout), o.Second.End.Format(clockLayout),
		o.Start.Format(clockLayout), o.End.Format(clockLayout), render.Minutes(o.Duration().Minutes()),
	)
}

func printTable(w io.Writer, lines []string) {
	fmt.Fprintln(w, defaultTheme.tableStyle().Render(strings.Join(lines, "\n")))
}
