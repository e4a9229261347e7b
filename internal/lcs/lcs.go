// Package lcs measures the longest common subsequence of two sequences.
package lcs

// Length returns the length of the longest common subsequence of a and b in O(len(a)*len(b)) time, using a single
// DP row sized by the shorter of the two.
func Length[T comparable](a, b []T) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}

	row := make([]int, len(b)+1)
	for i := range a {
		prev := 0 // row[j-1] from the previous pass, the diagonal.
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			if a[i] == b[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = cur
		}
	}
	return row[len(b)]
}

// Ratio returns Length(a, b) divided by the length of the longer input, or 0 if either is empty.
func Ratio[T comparable](a, b []T) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return float64(Length(a, b)) / float64(longest)
}
