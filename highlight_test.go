package overlap

import (
	"strings"
	"testing"
)

func TestHighlight(t *testing.T) {
	for _, test := range []struct {
		name   string
		text   string
		spans  []Span
		expect string
	}{
		{`empty`, ``, []Span{{0, 1}}, ``},
		{`plain`, `abc`, nil, `abc`},
		{`escapedOutside`, `a<b>&c`, nil, `a&lt;b&gt;&amp;c`},
		{`single`, `hello world`, []Span{{6, 5}}, `hello <mark>world</mark>`},
		{`merged`, `abcdef`, []Span{{0, 2}, {1, 2}, {3, 1}}, `<mark>abcd</mark>ef`},
		{`separate`, `abcdef`, []Span{{0, 1}, {4, 2}}, `<mark>a</mark>bcd<mark>ef</mark>`},
		{`escapedInside`, `x<y>z`, []Span{{1, 3}}, `x<mark>&lt;y&gt;</mark>z`},
		{`quotes`, `say "hi" it's`, []Span{{4, 4}}, `say <mark>&#34;hi&#34;</mark> it&#39;s`},
		{`runes`, `日本語テキスト`, []Span{{3, 4}}, `日本語<mark>テキスト</mark>`},
		{`malformed`, `abc`, []Span{{-2, 4}, {1, 0}, {2, 99}}, `ab<mark>c</mark>`},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := Highlight(test.text, test.spans, HTMLMarker)
			if got != test.expect {
				t.Errorf(`Highlight(%q, %v) = %q, want %q`, test.text, test.spans, got, test.expect)
			}
		})
	}
}

func TestHighlightPreservesText(t *testing.T) {
	text := "line one\n\tline <two>\n"
	mk := Marker{Open: `[`, Close: `]`}
	got := Highlight(text, []Span{{5, 3}, {15, 5}}, mk)
	if want := "line [one]\n\tline [<two>]\n"; got != want {
		t.Errorf(`got %q, want %q`, got, want)
	}
	if stripped := strings.NewReplacer(`[`, ``, `]`, ``).Replace(got); stripped != text {
		t.Errorf(`removing markers gave %q, want %q`, stripped, text)
	}
}
