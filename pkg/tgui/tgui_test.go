package tgui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"héllo", 3, "hé…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
	}
	for _, c := range cases {
		if got := TruncRunes(c.in, c.n); got != c.want {
			t.Fatalf("TruncRunes(%q,%d)=%q want %q", c.in, c.n, got, c.want)
		}
		if got := TruncRunes(c.in, c.n); utf8.RuneCountInString(got) > c.n && c.n > 0 {
			t.Fatalf("too long: %q", got)
		}
	}
}

func TestPad(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Fatalf("PadRight=%q", got)
	}
	if got := PadLeft("7", 3); got != "  7" {
		t.Fatalf("PadLeft=%q", got)
	}
	if got := PadRight("abcdef", 4); got != "abc…" {
		t.Fatalf("PadRight trunc=%q", got)
	}
}

func TestEscapeHelpers(t *testing.T) {
	if got := B("a<b"); got != "<b>a&lt;b</b>" {
		t.Fatalf("B=%q", got)
	}
	if got := JoinH("\n", B("x"), "", Code("y")); got != "<b>x</b>\n<code>y</code>" {
		t.Fatalf("JoinH=%q", got)
	}
	if got := KV("rows", 3); got != "<b>rows:</b> 3" {
		t.Fatalf("KV=%q", got)
	}
}

func TestPreChunksBalanced(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 40)+"<&>")
	}
	chunks := PreChunks(lines, 1000)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		s := c.String()
		if !strings.HasPrefix(s, "<pre>") || !strings.HasSuffix(s, "</pre>") {
			t.Fatalf("unbalanced chunk %q", s[:20])
		}
		if len(s) > 1000+len("<pre></pre>") {
			t.Fatalf("chunk too long: %d", len(s))
		}
		total += strings.Count(s, "&lt;&amp;&gt;")
	}
	if total != 200 {
		t.Fatalf("lost lines: %d", total)
	}
	if PreChunks(nil, 10) != nil {
		t.Fatalf("empty input should give no chunks")
	}
}
