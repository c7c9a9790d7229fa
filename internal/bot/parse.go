package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"runlens/internal/timeline"
)

func newReqID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// commandWord returns the command name of "/gantt@runlens_bot 2024-05-02"
// ("gantt") and whether text is a command at all.
func commandWord(tok string) (string, bool) {
	if !strings.HasPrefix(tok, "/") || len(tok) < 2 {
		return "", false
	}
	word := strings.TrimPrefix(tok, "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	return strings.ToLower(word), word != ""
}

// tokenizeCommandLine splits on whitespace, honoring single/double quotes
// and backslash escapes.
func tokenizeCommandLine(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		out   []string
		buf   strings.Builder
		inQ   bool
		qChar byte
		esc   bool
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case esc:
			buf.WriteByte(ch)
			esc = false
		case ch == '\\':
			esc = true
		case inQ:
			if ch == qChar {
				inQ = false
			} else {
				buf.WriteByte(ch)
			}
		case ch == '"' || ch == '\'':
			inQ, qChar = true, ch
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			flush()
		default:
			buf.WriteByte(ch)
		}
	}
	flush()
	return out
}

// parseSelection reads "[date] [all|am|pm]" in any order. date accepts
// YYYY-MM-DD, "today" and "yesterday" (in the dataset's location). Missing
// parts default to the newest day and the full day.
func parseSelection(args []string, ds *timeline.Dataset, now func() time.Time) (timeline.Selection, error) {
	var day, period string
	for _, a := range args {
		switch low := strings.ToLower(a); {
		case isPeriod(low):
			if period != "" {
				return timeline.Selection{}, fmt.Errorf("period given twice (%s, %s)", period, a)
			}
			period = low
		case day == "":
			day = a
		default:
			return timeline.Selection{}, fmt.Errorf("unexpected argument %q (usage: [YYYY-MM-DD] [all|am|pm])", a)
		}
	}
	switch strings.ToLower(day) {
	case "today":
		day = timeline.DateOf(now().In(ds.Location())).String()
	case "yesterday":
		day = timeline.DateOf(now().In(ds.Location())).AddDays(-1).String()
	}
	return timeline.ParseSelection(day, period, ds)
}

func isPeriod(s string) bool {
	if s == "" {
		return false
	}
	_, err := timeline.ParsePeriod(s)
	return err == nil
}
