package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swdunlop/overlap-go/analyze"
)

func TestHealth(t *testing.T) {
	svr := httptest.NewServer(Handler(&analyze.Local{Options: analyze.DefaultOptions()}))
	defer svr.Close()

	rsp, err := http.Get(svr.URL + `/health`)
	if err != nil {
		t.Fatal(err)
	}
	defer rsp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if rsp.StatusCode != 200 || body[`ok`] != true {
		t.Errorf(`health returned %v %v`, rsp.StatusCode, body)
	}
}

func TestAnalyze(t *testing.T) {
	svr := httptest.NewServer(Handler(&analyze.Local{Options: analyze.Options{ChunkLength: 20, MaxTextLength: 32}}))
	defer svr.Close()

	for _, test := range []struct {
		name        string
		contentType string
		body        string
		status      int
		check       func(t *testing.T, rsp map[string]any)
	}{
		{`kmp`, `application/json`, `{"algorithm":"kmp","textA":"abcabc","textB":"xbc","pattern":"bc"}`, 200,
			func(t *testing.T, rsp map[string]any) {
				want := map[string]any{
					`algorithm`: `kmp`,
					`matchesA`:  []any{[]any{1.0, 2.0}, []any{4.0, 2.0}},
					`matchesB`:  []any{[]any{1.0, 2.0}},
					`coveredA`:  4.0,
					`coveredB`:  2.0,
				}
				if diff := cmp.Diff(want, rsp); diff != `` {
					t.Errorf(`response mismatch (-want +got):\n%s`, diff)
				}
			}},
		{`lcs`, `application/json; charset=utf-8`, `{"algorithm":"lcs","textA":"abc","textB":"abd"}`, 200,
			func(t *testing.T, rsp map[string]any) {
				if rsp[`similarity`] != 0.666667 {
					t.Errorf(`similarity = %v, want 0.666667`, rsp[`similarity`])
				}
			}},
		{`highlight`, `application/json`, `{"algorithm":"rk","textA":"a<b","textB":"","pattern":"<","highlight":true}`, 200,
			func(t *testing.T, rsp map[string]any) {
				const want = `<div style='white-space:pre-wrap;font-family:monospace'>a<mark>&lt;</mark>b</div>`
				if rsp[`highlightA`] != want || rsp[`highlightB`] != `<em>No text</em>` {
					t.Errorf(`highlights = %q, %q`, rsp[`highlightA`], rsp[`highlightB`])
				}
			}},
		{`unknownAlgorithm`, `application/json`, `{"algorithm":"fuzzy"}`, 400, nil},
		{`missingAlgorithm`, `application/json`, `{"textA":"a"}`, 400, nil},
		{`tooLong`, `application/json`, `{"algorithm":"lcs","textA":"` + strings.Repeat(`x`, 33) + `"}`, 413, nil},
		{`notJSON`, `text/plain`, `{}`, 415, nil},
		{`illegible`, `application/json`, `{"algorithm":`, 400, nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			rsp, err := http.Post(svr.URL+`/api/analyze`, test.contentType, strings.NewReader(test.body))
			if err != nil {
				t.Fatal(err)
			}
			defer rsp.Body.Close()
			var body map[string]any
			if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if rsp.StatusCode != test.status {
				t.Fatalf(`status = %v, want %v (%v)`, rsp.StatusCode, test.status, body)
			}
			if test.status != 200 {
				if body[`error`] == nil {
					t.Errorf(`expected an error in %v`, body)
				}
				return
			}
			test.check(t, body)
		})
	}
}

type failing struct{}

func (failing) Analyze(ctx context.Context, req *analyze.Request) (*analyze.Response, error) {
	return nil, errors.New(`no workers available`)
}

func TestAnalyzeFailure(t *testing.T) {
	h := Handler(failing{})
	r := httptest.NewRequest(`POST`, `/api/analyze`, strings.NewReader(`{"algorithm":"kmp"}`))
	r.Header.Set(`Content-Type`, `application/json`)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 500 || !strings.Contains(w.Body.String(), `no workers available`) {
		t.Errorf(`got %v %q`, w.Code, w.Body.String())
	}

	r = httptest.NewRequest(`GET`, `/api/analyze`, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf(`GET /api/analyze returned %v`, w.Code)
	}
}
