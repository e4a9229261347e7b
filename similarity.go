package overlap

import "github.com/swdunlop/overlap-go/internal/lcs"

// Similarity returns the length of the longest common subsequence of a and b divided by the length of the longer
// text, in [0, 1].  It is symmetric, returns 0 if either text is empty and 1 for identical texts.  Time is
// O(|a|*|b|) and extra space is O(min(|a|, |b|)).
func Similarity(a, b string) float64 {
	if a == `` || b == `` {
		return 0
	}
	return lcs.Ratio([]rune(a), []rune(b))
}
