package overlap

import "unicode"

// MinChunkLength is the shortest chunk DetectOverlap will search for; shorter requests are raised to it.  Very short
// chunks match almost everywhere and flood the result with noise.
const MinChunkLength = 4

// DetectOverlap finds passages of a that also occur in b without needing a pattern from the caller.  Every window of
// a that is exactly chunkLength runes long and not entirely whitespace becomes a chunk; each distinct chunk is then
// located in a and in b with m, and every occurrence is reported as a Span of chunkLength runes.
//
// Chunks are deduplicated by content: a chunk that appears at several offsets of a is searched once, and its
// occurrences are reported once rather than once per offset.  The result is therefore every occurrence of every
// distinct chunk, not every overlapping window.  Chunks are searched in order of their first appearance in a, but
// callers should only rely on all true occurrences being present.
func DetectOverlap(a, b string, chunkLength int, m Matcher) (matchesA, matchesB []Span) {
	return DetectOverlapRunes([]rune(a), []rune(b), chunkLength, m)
}

// DetectOverlapRunes is DetectOverlap for texts that have already been split into runes.
func DetectOverlapRunes(a, b []rune, chunkLength int, m Matcher) (matchesA, matchesB []Span) {
	if chunkLength < MinChunkLength {
		chunkLength = MinChunkLength
	}
	for _, chunk := range distinctChunks(a, chunkLength) {
		for _, pos := range m.FindAll(a, chunk) {
			matchesA = append(matchesA, Span{pos, chunkLength})
		}
		for _, pos := range m.FindAll(b, chunk) {
			matchesB = append(matchesB, Span{pos, chunkLength})
		}
	}
	return matchesA, matchesB
}

// distinctChunks returns the distinct windows of text that are size runes long, in order of first appearance,
// skipping windows that contain nothing but whitespace.
func distinctChunks(text []rune, size int) [][]rune {
	if size <= 0 || len(text) < size {
		return nil
	}
	seen := make(map[string]struct{}, len(text)-size+1)
	chunks := make([][]rune, 0, len(text)-size+1)
	for i := 0; i+size <= len(text); i++ {
		chunk := text[i : i+size : i+size]
		if blank(chunk) {
			continue
		}
		key := string(chunk)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func blank(chunk []rune) bool {
	for _, r := range chunk {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
