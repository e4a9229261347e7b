// Package analyze turns a comparison request into calls to the overlap engine.  It is the boundary where the
// algorithm is selected, tunables are applied, and input size is bounded before any work is done.
package analyze

import (
	"context"
	"fmt"
	"math"

	"github.com/pbnjay/memory"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/configuration"
)

// An Analyzer compares the two texts of a request.  Local runs the comparison in process; the nats package provides
// an Analyzer that forwards requests to a worker.
type Analyzer interface {
	Analyze(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a comparison of two texts.
type Request struct {
	// Algorithm selects exact matching with KMP or Rabin-Karp, or LCS similarity.
	Algorithm overlap.Algorithm `json:"algorithm"`

	TextA string `json:"textA"`
	TextB string `json:"textB"`

	// Pattern, if not empty, is searched for in both texts.  Otherwise chunks of TextA are searched for in both.
	// Ignored for LCS.
	Pattern string `json:"pattern,omitempty"`

	// Chunk is the chunk length used when no pattern is given.  Zero selects the configured default, and values
	// below the configured minimum are raised to it.
	Chunk int `json:"chunk,omitempty"`

	// Highlight requests HTML renderings of both texts with their matches marked.
	Highlight bool `json:"highlight,omitempty"`
}

// Response holds the result of a comparison.  Similarity is only set for LCS, the other fields only for exact
// matching.
type Response struct {
	Algorithm  overlap.Algorithm `json:"algorithm"`
	Similarity *float64          `json:"similarity,omitempty"`
	MatchesA   []overlap.Span    `json:"matchesA,omitempty"`
	MatchesB   []overlap.Span    `json:"matchesB,omitempty"`
	CoveredA   int               `json:"coveredA,omitempty"` // runes of TextA inside at least one match
	CoveredB   int               `json:"coveredB,omitempty"`
	HighlightA string            `json:"highlightA,omitempty"`
	HighlightB string            `json:"highlightB,omitempty"`
}

// Options tunes a Local analyzer.
type Options struct {
	// ChunkLength is used when a request has no pattern and no chunk length, defaults to 20.
	ChunkLength int `cfg:"chunk_length"`

	// MinChunkLength raises shorter chunk lengths to it, defaults to overlap.MinChunkLength.  Values below
	// overlap.MinChunkLength have no effect.
	MinChunkLength int `cfg:"min_chunk_length"`

	// MaxTextLength rejects requests where either text has more runes than this.  Zero disables the limit.
	// Defaults to DefaultMaxTextLength.
	MaxTextLength int `cfg:"max_text_length"`
}

// DefaultChunkLength is the chunk length used when neither the request nor the configuration sets one.
const DefaultChunkLength = 20

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ChunkLength:    DefaultChunkLength,
		MinChunkLength: overlap.MinChunkLength,
		MaxTextLength:  DefaultMaxTextLength(),
	}
}

// DefaultMaxTextLength allows one rune per KiB of physical memory, but never less than 200,000 or more than
// 2,000,000 runes.  Similarity is quadratic in time, so this bounds the work a single request can demand.
func DefaultMaxTextLength() int {
	const lo, hi = 200_000, 2_000_000
	n := memory.TotalMemory() / 1024
	switch {
	case n < lo:
		return lo
	case n > hi:
		return hi
	}
	return int(n)
}

// ParseOptions reads Options from cf, starting from DefaultOptions.
func ParseOptions(cf configuration.Interface) (Options, error) {
	opts := DefaultOptions()
	if cf == nil {
		return opts, nil
	}
	if err := configuration.Unmarshal(&opts, cf); err != nil {
		return opts, err
	}
	if opts.ChunkLength <= 0 {
		return opts, fmt.Errorf(`chunk_length must be positive, got %d`, opts.ChunkLength)
	}
	if opts.MaxTextLength < 0 {
		return opts, fmt.Errorf(`max_text_length must not be negative, got %d`, opts.MaxTextLength)
	}
	return opts, nil
}

// ErrTextTooLong is returned when a text exceeds Options.MaxTextLength.
var ErrTextTooLong error = errTextTooLong{}

type errTextTooLong struct{}

// Error implements the error interface by returning a static string, "text too long"
func (errTextTooLong) Error() string { return "text too long" }

// Local analyzes requests in the calling goroutine.  It holds no mutable state and may be shared.
type Local struct {
	Options Options
}

// New returns a Local analyzer configured from cf.
func New(cf configuration.Interface) (*Local, error) {
	opts, err := ParseOptions(cf)
	if err != nil {
		return nil, err
	}
	return &Local{opts}, nil
}

// Analyze implements Analyzer.  Errors are only returned for requests rejected before any work begins: an unknown
// algorithm, an oversized text, or a context that is already done.  The comparison itself cannot be interrupted.
func (a *Local) Analyze(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	textA, textB := []rune(req.TextA), []rune(req.TextB)
	if limit := a.Options.MaxTextLength; limit > 0 {
		for _, n := range []int{len(textA), len(textB)} {
			if n > limit {
				return nil, fmt.Errorf(`%w, %d runes exceeds the limit of %d`, ErrTextTooLong, n, limit)
			}
		}
	}

	rsp := &Response{Algorithm: req.Algorithm}
	if req.Algorithm == overlap.AlgorithmLCS {
		similarity := round6(overlap.Similarity(req.TextA, req.TextB))
		rsp.Similarity = &similarity
		return rsp, nil
	}
	m, ok := req.Algorithm.Matcher()
	if !ok {
		return nil, fmt.Errorf(`%w, %v`, overlap.ErrUnknownAlgorithm, req.Algorithm)
	}

	if req.Pattern != `` {
		pattern := []rune(req.Pattern)
		rsp.MatchesA = spansOf(m.FindAll(textA, pattern), len(pattern))
		rsp.MatchesB = spansOf(m.FindAll(textB, pattern), len(pattern))
	} else {
		rsp.MatchesA, rsp.MatchesB = overlap.DetectOverlapRunes(textA, textB, a.chunkLength(req.Chunk), m)
	}
	rsp.CoveredA = overlap.Covered(len(textA), rsp.MatchesA)
	rsp.CoveredB = overlap.Covered(len(textB), rsp.MatchesB)
	if req.Highlight {
		rsp.HighlightA = RenderHTML(req.TextA, rsp.MatchesA)
		rsp.HighlightB = RenderHTML(req.TextB, rsp.MatchesB)
	}
	return rsp, nil
}

func (a *Local) chunkLength(n int) int {
	if n <= 0 {
		n = a.Options.ChunkLength
	}
	if n <= 0 {
		n = DefaultChunkLength
	}
	if n < a.Options.MinChunkLength {
		n = a.Options.MinChunkLength
	}
	return n // DetectOverlap applies overlap.MinChunkLength itself.
}

// RenderHTML renders text as a preformatted HTML block with the regions covered by spans marked.
func RenderHTML(text string, spans []overlap.Span) string {
	if text == `` {
		return `<em>No text</em>`
	}
	return `<div style='white-space:pre-wrap;font-family:monospace'>` +
		overlap.Highlight(text, spans, overlap.HTMLMarker) +
		`</div>`
}

func spansOf(positions []int, length int) []overlap.Span {
	if len(positions) == 0 {
		return nil
	}
	spans := make([]overlap.Span, len(positions))
	for i, pos := range positions {
		spans[i] = overlap.Span{Start: pos, Length: length}
	}
	return spans
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
