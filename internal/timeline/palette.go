package timeline

// Colors used by the timeline renderers, keyed by category.
var Palette = map[string]string{
	"MAM - 1st run":  "#1f77b4",
	"MAM - 2nd run":  "#6baed6",
	"MAM - 3rd+ run": "#c6dbef",
	"MAC - 1st run":  "#ff7f0e",
	"MAC - 2nd run":  "#ffbb78",
	"MAC - 3rd+ run": "#ffd699",
}

const otherColor = "#2ca02c"

// Color returns the palette color of a category, falling back to green for
// workspaces outside the known set.
func Color(category string) string {
	if c, ok := Palette[category]; ok {
		return c
	}
	return otherColor
}
