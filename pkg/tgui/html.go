package tgui

import (
	"fmt"
	"html"
	"strings"
)

// ParseMode is the Telegram parse mode matching the helpers in this package.
const ParseMode = "HTML"

// MaxMessageLen is the per-message budget used when splitting. Telegram's
// hard limit is 4096; the margin leaves room for wrapping tags.
const MaxMessageLen = 3800

// H represents HTML that is safe to pass to Telegram when ParseMode="HTML".
// Values of type H should be treated as already-escaped.
type H string

func (h H) String() string { return string(h) }

// Esc escapes text for Telegram HTML parse mode.
func Esc(s string) H { return H(html.EscapeString(s)) }

func wrap(tag string, inner H) H { return H("<" + tag + ">" + inner.String() + "</" + tag + ">") }

func B(s string) H    { return wrap("b", Esc(s)) }
func I(s string) H    { return wrap("i", Esc(s)) }
func Code(s string) H { return wrap("code", Esc(s)) }

// Pre renders a preformatted block. Long content must go through
// PreChunks so every message keeps balanced tags.
func Pre(s string) H {
	return H("<pre>" + html.EscapeString(s) + "</pre>")
}

// KV renders "<b>key:</b> value".
func KV(key string, value any) H {
	return H(fmt.Sprintf("%s %s", B(key+":"), Esc(fmt.Sprint(value))))
}

// JoinH joins safe HTML parts with sep, skipping blank parts.
func JoinH(sep string, parts ...H) H {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p.String()) == "" {
			continue
		}
		ss = append(ss, p.String())
	}
	return H(strings.Join(ss, sep))
}

// PreChunks packs lines into Pre blocks of at most max escaped bytes each.
// A single line longer than max is truncated.
func PreChunks(lines []string, max int) []H {
	if max <= 0 {
		max = MaxMessageLen
	}
	var (
		out  []H
		cur  strings.Builder
		size int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, H("<pre>"+cur.String()+"</pre>"))
			cur.Reset()
			size = 0
		}
	}
	for _, ln := range lines {
		esc := html.EscapeString(ln)
		if len(esc) > max {
			esc = html.EscapeString(TruncRunes(ln, max/6))
		}
		if size > 0 && size+len(esc)+1 > max {
			flush()
		}
		if size > 0 {
			cur.WriteByte('\n')
			size++
		}
		cur.WriteString(esc)
		size += len(esc)
	}
	flush()
	return out
}
