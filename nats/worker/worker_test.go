package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/analyze"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
)

func TestParseRequest(t *testing.T) {
	for _, test := range []struct {
		name string
		data string
		code int // zero if accepted
	}{
		{`illegible`, `{"job":`, msg.ErrIllegibleRequest},
		{`noJob`, `{"analyze":{"algorithm":"kmp"}}`, msg.ErrInvalidRequest},
		{`noCommand`, `{"job":"j1"}`, msg.ErrUnsupportedCommand},
		{`badAlgorithm`, `{"job":"j1","analyze":{"algorithm":"fuzzy"}}`, msg.ErrIllegibleRequest},
		{`ok`, `{"job":"j1","analyze":{"algorithm":"lcs","textA":"a","textB":"b"}}`, 0},
	} {
		t.Run(test.name, func(t *testing.T) {
			req, rejected := parseRequest([]byte(test.data))
			if test.code == 0 {
				if rejected != nil {
					t.Fatalf(`rejected: %+v`, rejected.Error)
				}
				if req.Job != `j1` || req.Analyze.Algorithm != overlap.AlgorithmLCS {
					t.Errorf(`unexpected request %+v`, req)
				}
				return
			}
			if rejected == nil || rejected.Error == nil {
				t.Fatalf(`accepted %q, want code %d`, test.data, test.code)
			}
			if rejected.Error.Code != test.code {
				t.Errorf(`code = %d, want %d (%v)`, rejected.Error.Code, test.code, rejected.Error.Err)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	w := worker{analyzer: &analyze.Local{Options: analyze.Options{ChunkLength: 20, MaxTextLength: 10}}}
	ctx := context.Background()

	rsp := w.handle(ctx, `j1`, &analyze.Request{Algorithm: overlap.AlgorithmKMP, TextA: `aaaaa`, TextB: `aa`, Pattern: `aa`})
	want := &msg.WorkerResponse{Job: `j1`, Analyze: &analyze.Response{
		Algorithm: overlap.AlgorithmKMP,
		MatchesA:  []overlap.Span{{Start: 0, Length: 2}, {Start: 1, Length: 2}, {Start: 2, Length: 2}, {Start: 3, Length: 2}},
		MatchesB:  []overlap.Span{{Start: 0, Length: 2}},
		CoveredA:  5,
		CoveredB:  2,
	}}
	if diff := cmp.Diff(want, rsp); diff != `` {
		t.Errorf(`handle mismatch (-want +got):\n%s`, diff)
	}

	rsp = w.handle(ctx, `j2`, &analyze.Request{Algorithm: overlap.AlgorithmLCS, TextA: `this text is too long`})
	if rsp.Error == nil || rsp.Error.Code != msg.ErrTextTooLong || rsp.Job != `j2` {
		t.Errorf(`oversized text: got %+v`, rsp)
	}

	rsp = w.handle(ctx, `j3`, &analyze.Request{TextA: `abc`})
	if rsp.Error == nil || rsp.Error.Code != msg.ErrAnalysisFailed {
		t.Errorf(`missing algorithm: got %+v`, rsp)
	}
}

func TestHandleHooks(t *testing.T) {
	w := worker{analyzer: &analyze.Local{Options: analyze.DefaultOptions()}}
	Hook(func(ctx context.Context, req *analyze.Request) error {
		req.Pattern = `b` // hooks may rewrite requests.
		return nil
	})(&w)
	rsp := w.handle(context.Background(), `j1`, &analyze.Request{Algorithm: overlap.AlgorithmRabinKarp, TextA: `abab`, Pattern: `a`})
	if rsp.Analyze == nil {
		t.Fatalf(`unexpected rejection %+v`, rsp.Error)
	}
	if diff := cmp.Diff([]overlap.Span{{Start: 1, Length: 1}, {Start: 3, Length: 1}}, rsp.Analyze.MatchesA); diff != `` {
		t.Errorf(`hook rewrite mismatch (-want +got):\n%s`, diff)
	}

	Hook(func(ctx context.Context, req *analyze.Request) error {
		return msg.Error{Code: msg.ErrInvalidRequest, Err: `no thanks`}
	})(&w)
	Hook(func(ctx context.Context, req *analyze.Request) error {
		return errors.New(`not reached`)
	})(&w)
	rsp = w.handle(context.Background(), `j2`, &analyze.Request{Algorithm: overlap.AlgorithmKMP})
	if rsp.Error == nil || rsp.Error.Code != msg.ErrInvalidRequest || rsp.Error.Err != `no thanks` {
		t.Errorf(`hook rejection: got %+v`, rsp.Error)
	}
}

func TestOptionConflicts(t *testing.T) {
	var w worker
	Analyzer(&analyze.Local{})(&w)
	Analyzer(&analyze.Local{})(&w)
	if w.err == nil {
		t.Errorf(`expected an error for two analyzers`)
	}
}
