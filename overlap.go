// Package overlap compares two texts for shared passages and overall similarity.
//
// Texts are handled as sequences of Unicode code points and every offset reported by this package is a rune offset.
// All functions are pure: they keep no state between calls and are safe to call from many goroutines at once.
// Degenerate input (empty texts, empty or oversized patterns, malformed spans) produces empty results, never errors.
package overlap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/swdunlop/overlap-go/internal/kmp"
	"github.com/swdunlop/overlap-go/internal/rollhash"
)

// A Span marks a matched region of a text as a rune offset and a rune length.  Spans encode to JSON as the two
// element array [start, length].
type Span struct {
	Start  int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Start + s.Length }

// MarshalJSON implements json.Marshaler by encoding the span as [start, length].
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.Length})
}

// UnmarshalJSON implements json.Unmarshaler by decoding a span from [start, length].
func (s *Span) UnmarshalJSON(p []byte) error {
	var pair [2]int
	if err := json.Unmarshal(p, &pair); err != nil {
		return fmt.Errorf(`%w, expected [start, length]`, err)
	}
	s.Start, s.Length = pair[0], pair[1]
	return nil
}

// A Matcher finds every occurrence of a pattern in a text, returning their offsets in increasing order.  Occurrences
// that overlap each other are all reported.  A Matcher returns nil for an empty pattern, an empty text, or a pattern
// longer than the text.
type Matcher interface {
	FindAll(text, pattern []rune) []int
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(text, pattern []rune) []int

// FindAll implements Matcher by calling fn.
func (fn MatcherFunc) FindAll(text, pattern []rune) []int { return fn(text, pattern) }

var (
	// KMP searches using the Knuth-Morris-Pratt failure table in O(n+m) time.
	KMP Matcher = MatcherFunc(kmp.FindAll[rune])

	// RabinKarp searches using a polynomial rolling hash, confirming each hash match by comparison.  It reports
	// exactly the same offsets as KMP.
	RabinKarp Matcher = MatcherFunc(rollhash.FindAll[rune])
)

// FindAll uses m to find every occurrence of pattern in text, returning rune offsets.
func FindAll(m Matcher, text, pattern string) []int {
	if text == `` || pattern == `` {
		return nil
	}
	return m.FindAll([]rune(text), []rune(pattern))
}

// An Algorithm selects how two texts are compared.
type Algorithm uint8

const (
	// AlgorithmKMP reports exact matches found with KMP.
	AlgorithmKMP Algorithm = iota + 1
	// AlgorithmRabinKarp reports exact matches found with RabinKarp.
	AlgorithmRabinKarp
	// AlgorithmLCS reports the LCS similarity of the two texts.
	AlgorithmLCS
)

// ParseAlgorithm parses the name of an algorithm, ignoring case.  Accepted names are "kmp", "rk", "rabin-karp",
// "rabinkarp" and "lcs".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case `kmp`:
		return AlgorithmKMP, nil
	case `rk`, `rabin-karp`, `rabinkarp`:
		return AlgorithmRabinKarp, nil
	case `lcs`:
		return AlgorithmLCS, nil
	}
	return 0, fmt.Errorf(`%w, %q`, ErrUnknownAlgorithm, name)
}

// ErrUnknownAlgorithm is returned by ParseAlgorithm for names it does not recognize.
var ErrUnknownAlgorithm error = errUnknownAlgorithm{}

type errUnknownAlgorithm struct{}

// Error implements the error interface by returning a static string, "unknown algorithm"
func (errUnknownAlgorithm) Error() string { return "unknown algorithm" }

// String returns the canonical name of the algorithm: "kmp", "rabin-karp" or "lcs".
func (a Algorithm) String() string {
	switch a {
	case AlgorithmKMP:
		return `kmp`
	case AlgorithmRabinKarp:
		return `rabin-karp`
	case AlgorithmLCS:
		return `lcs`
	}
	return fmt.Sprintf(`algorithm(%d)`, uint8(a))
}

// Matcher returns the exact matcher used by the algorithm, or false for AlgorithmLCS.
func (a Algorithm) Matcher() (Matcher, bool) {
	switch a {
	case AlgorithmKMP:
		return KMP, true
	case AlgorithmRabinKarp:
		return RabinKarp, true
	}
	return nil, false
}

// MarshalText implements encoding.TextMarshaler using the canonical name.
func (a Algorithm) MarshalText() ([]byte, error) {
	switch a {
	case AlgorithmKMP, AlgorithmRabinKarp, AlgorithmLCS:
		return []byte(a.String()), nil
	}
	return nil, fmt.Errorf(`%w, %d`, ErrUnknownAlgorithm, uint8(a))
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseAlgorithm.
func (a *Algorithm) UnmarshalText(p []byte) error {
	v, err := ParseAlgorithm(string(p))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
