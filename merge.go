package overlap

// Merge converts spans over a text of textLength runes into the smallest ordered set of disjoint intervals covering
// the same runes.  Overlapping and adjacent spans are joined.  Spans that start outside [0, textLength) or have a
// non-positive length are dropped, and spans running past the end of the text are clamped to it.
//
// Merge runs in O(textLength + len(spans)) regardless of how many spans cover a given rune.
func Merge(textLength int, spans []Span) []Span {
	if textLength <= 0 || len(spans) == 0 {
		return nil
	}
	delta := make([]int, textLength+1)
	marked := false
	for _, span := range spans {
		if span.Start < 0 || span.Start >= textLength || span.Length <= 0 {
			continue
		}
		end := textLength
		if span.Length < textLength-span.Start {
			end = span.Start + span.Length
		}
		delta[span.Start]++
		delta[end]--
		marked = true
	}
	if !marked {
		return nil
	}

	var merged []Span
	coverage, start := 0, 0
	for i, d := range delta {
		if d == 0 {
			continue
		}
		was := coverage
		coverage += d
		switch {
		case was == 0 && coverage > 0:
			start = i
		case was > 0 && coverage == 0:
			merged = append(merged, Span{start, i - start})
		}
	}
	return merged
}

// Covered returns the number of runes of a text of textLength runes that are covered by at least one span, using the
// same rules as Merge.
func Covered(textLength int, spans []Span) int {
	n := 0
	for _, span := range Merge(textLength, spans) {
		n += span.Length
	}
	return n
}
