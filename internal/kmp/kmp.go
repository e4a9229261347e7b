// Package kmp finds every occurrence of a pattern using the Knuth-Morris-Pratt failure table.
package kmp

// FindAll returns the offset of every occurrence of pattern in text in O(n+m) time, including occurrences that
// overlap each other.  Returns nil if pattern is empty, text is empty, or pattern is longer than text.
func FindAll[T comparable](text, pattern []T) []int {
	n, m := len(text), len(pattern)
	if m == 0 || n == 0 || m > n {
		return nil
	}

	table := buildKMP(pattern)
	var found []int
	for i, j := 0, 0; i < n; i++ {
		for j > 0 && text[i] != pattern[j] {
			j = table[j-1]
		}
		if text[i] == pattern[j] {
			j++
		}
		if j == m {
			found = append(found, i-j+1)
			// fold instead of resetting so overlapping occurrences are not skipped.
			j = table[j-1]
		}
	}
	return found
}

// buildKMP returns the failure table for pattern, where table[i] is the length of the longest proper prefix of
// pattern[:i+1] that is also its suffix.
func buildKMP[T comparable](pattern []T) []int {
	n := len(pattern)
	table := make([]int, n)
	for i := 1; i < n; i++ {
		j := table[i-1]
		for j > 0 && pattern[i] != pattern[j] {
			j = table[j-1]
		}
		if pattern[i] == pattern[j] {
			j++
		}
		table[i] = j
	}
	return table
}
