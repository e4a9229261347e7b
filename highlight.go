package overlap

import (
	"strings"

	"golang.org/x/net/html"
)

// A Marker describes how Highlight renders a text: covered regions are wrapped in Open and Close, and every segment
// of the text, covered or not, is passed through Escape.  A nil Escape leaves the text unchanged.
type Marker struct {
	Open, Close string
	Escape      func(string) string
}

// HTMLMarker wraps covered regions in <mark> elements and escapes HTML special characters.
var HTMLMarker = Marker{Open: `<mark>`, Close: `</mark>`, Escape: html.EscapeString}

// Highlight renders text with the regions covered by spans wrapped by mk.  Spans are merged first, so overlapping or
// adjacent spans produce a single region.  Apart from the markers and escaping, the text is reproduced unchanged.
func Highlight(text string, spans []Span, mk Marker) string {
	runes := []rune(text)
	escape := mk.Escape
	if escape == nil {
		escape = func(s string) string { return s }
	}

	var out strings.Builder
	out.Grow(len(text) + len(spans)*(len(mk.Open)+len(mk.Close)))
	at := 0
	for _, region := range Merge(len(runes), spans) {
		out.WriteString(escape(string(runes[at:region.Start])))
		out.WriteString(mk.Open)
		out.WriteString(escape(string(runes[region.Start:region.End()])))
		out.WriteString(mk.Close)
		at = region.End()
	}
	out.WriteString(escape(string(runes[at:])))
	return out.String()
}
