package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/analyze"
)

func runREPL(ctx context.Context) error {
	cf, err := loadConfiguration()
	if err != nil {
		return err
	}
	base, err := newRequest()
	if err != nil {
		return err
	}
	if base.Algorithm == overlap.AlgorithmLCS {
		return fmt.Errorf(`the repl searches for patterns, use -algorithm kmp or rk`)
	}
	a, release, err := newAnalyzer(cf)
	if err != nil {
		return err
	}
	defer release()

	rl, err := readline.New(`> `)
	if err != nil {
		return err
	}
	defer rl.Close()
	stdout := rl.Stdout()
	fmt.Fprintln(stdout, `enter a pattern, ":chunk N" to compare chunks, ":lcs" for similarity, or ":quit"`)

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, readline.ErrInterrupt):
			return nil
		case err != nil:
			return err
		}
		req, err := parseLine(base, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintln(stdout, `!!`, err)
			continue
		case req == nil:
			continue
		}
		rsp, err := a.Analyze(ctx, req)
		if err != nil {
			fmt.Fprintln(stdout, `!!`, err)
			continue
		}
		printResponse(stdout, req, rsp)
	}
}

// errQuit is returned by parseLine for ":quit".
var errQuit = errors.New(`quit`)

// parseLine turns a line of input into a request derived from base.  It returns nil for a blank line.
func parseLine(base *analyze.Request, line string) (*analyze.Request, error) {
	req := *base
	cmd, arg, _ := strings.Cut(line, ` `)
	switch cmd {
	case ``:
		return nil, nil
	case `:quit`:
		return nil, errQuit
	case `:lcs`:
		req.Algorithm = overlap.AlgorithmLCS
	case `:chunk`:
		var err error
		req.Chunk, err = strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf(`%w while parsing the chunk length`, err)
		}
	default:
		if strings.HasPrefix(cmd, `:`) {
			return nil, fmt.Errorf(`unknown command %s`, cmd)
		}
		req.Pattern = line
	}
	return &req, nil
}

func printResponse(w io.Writer, req *analyze.Request, rsp *analyze.Response) {
	if rsp.Similarity != nil {
		fmt.Fprintf(w, "similarity %.6f\n", *rsp.Similarity)
		return
	}
	for _, it := range []struct {
		name    string
		text    string
		matches []overlap.Span
		covered int
	}{
		{`a`, req.TextA, rsp.MatchesA, rsp.CoveredA},
		{`b`, req.TextB, rsp.MatchesB, rsp.CoveredB},
	} {
		total := len([]rune(it.text))
		fmt.Fprintf(w, "%s: %d matches covering %d of %d runes\n", it.name, len(it.matches), it.covered, total)
		for i, span := range overlap.Merge(total, it.matches) {
			if i == 8 {
				fmt.Fprintln(w, `   ...`)
				break
			}
			fmt.Fprintf(w, "   %d+%d %q\n", span.Start, span.Length, excerpt(it.text, span))
		}
	}
}

// excerpt returns the text of span, shortened to 40 runes.
func excerpt(text string, span overlap.Span) string {
	runes := []rune(text)
	end := span.End()
	if span.Length > 40 {
		end = span.Start + 40
	}
	return string(runes[span.Start:end])
}
