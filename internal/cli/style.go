package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Title   lipgloss.Color
	Warn    lipgloss.Color
	OK      lipgloss.Color
	Hint    lipgloss.Color
	Bar     lipgloss.Color
	Inverse lipgloss.Color
}

var defaultTheme = Theme{
	Title:   lipgloss.Color("#5FAFD7"),
	Warn:    lipgloss.Color("#FF005F"),
	OK:      lipgloss.Color("#00D787"),
	Hint:    lipgloss.Color("#6C6C6C"),
	Bar:     lipgloss.Color("#FFAF00"),
	Inverse: lipgloss.Color("#FF875F"),
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warn).Bold(true)
}

func (t Theme) okStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.OK)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) tableStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Hint).
		Padding(0, 1)
}

func printTitle(w io.Writer, title, sub string) {
	fmt.Fprintln(w, defaultTheme.titleStyle().Render(title))
	if sub != "" {
		fmt.Fprintln(w, defaultTheme.hintStyle().Render(sub))
	}
}
