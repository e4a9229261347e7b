package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/analyze"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/slog"
	overlapnats "github.com/swdunlop/overlap-go/nats"
	"github.com/swdunlop/overlap-go/nats/worker"
	"github.com/swdunlop/overlap-go/service"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

var tasks = zugzug.Tasks{
	{Name: "analyze", Use: "compares two text files and prints the result as JSON", Fn: runAnalyze, Parse: parser.New(
		parser.String(&cfgFile, "config", "c", "YAML or JSON configuration file"),
		parser.String(&fileA, "a", "", "file holding the first text"),
		parser.String(&fileB, "b", "", "file holding the second text"),
		parser.String(&algorithm, "algorithm", "m", "kmp, rk or lcs"),
		parser.String(&pattern, "pattern", "p", "pattern to search for instead of chunks of the first text"),
		parser.String(&chunk, "chunk", "n", "chunk length used without a pattern"),
		parser.Bool(&highlight, "html", "", false, "include HTML renderings with matches marked"),
		parser.Bool(&remote, "remote", "r", false, "send the request to a NATS worker"),
	)},
	{Name: "repl", Use: "searches two text files for patterns read interactively", Fn: runREPL, Parse: parser.New(
		parser.String(&cfgFile, "config", "c", "YAML or JSON configuration file"),
		parser.String(&fileA, "a", "", "file holding the first text"),
		parser.String(&fileB, "b", "", "file holding the second text"),
		parser.String(&algorithm, "algorithm", "m", "kmp or rk"),
		parser.Bool(&remote, "remote", "r", false, "send requests to a NATS worker"),
	)},
	{Name: "worker", Use: "runs a NATS worker that analyzes requests", Fn: runWorker, Parse: parser.New(
		parser.String(&cfgFile, "config", "c", "YAML or JSON configuration file"),
	)},
	{Name: "service", Use: "runs an HTTP service that analyzes requests", Fn: runService, Parse: parser.New(
		parser.String(&cfgFile, "config", "c", "YAML or JSON configuration file"),
		parser.String(&listenAddr, "listen", "l", "address to listen on"),
		parser.Bool(&remote, "remote", "r", false, "send requests to a NATS worker"),
	)},
	{Name: "bench", Use: "times the matchers and similarity on synthetic texts", Fn: runBench, Parse: parser.New(
		parser.String(&cfgFile, "config", "c", "YAML or JSON configuration file"),
	)},
}

var (
	cfgFile    string
	fileA      string
	fileB      string
	algorithm  = `kmp`
	pattern    string
	chunk      string
	highlight  bool
	remote     bool
	listenAddr string
)

func init() {
	slog.Init(os.Stderr, slog.LevelInfo)
}

func main() {
	zugzug.Main(tasks)
}

func runAnalyze(ctx context.Context) error {
	cf, err := loadConfiguration()
	if err != nil {
		return err
	}
	req, err := newRequest()
	if err != nil {
		return err
	}
	req.Pattern = pattern
	req.Highlight = highlight
	if chunk != `` {
		req.Chunk, err = strconv.Atoi(chunk)
		if err != nil {
			return fmt.Errorf(`%w while parsing -chunk`, err)
		}
	}

	a, release, err := newAnalyzer(cf)
	if err != nil {
		return err
	}
	defer release()
	rsp, err := a.Analyze(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent(``, `  `)
	enc.SetEscapeHTML(false)
	return enc.Encode(rsp)
}

func runWorker(ctx context.Context) error {
	cf, err := loadConfiguration()
	if err != nil {
		return err
	}
	return worker.Run(ctx, cf)
}

func runService(ctx context.Context) error {
	cf, err := loadConfiguration()
	if err != nil {
		return err
	}
	if listenAddr != `` {
		cf = configuration.With(cf, `listen_addr`, listenAddr)
	}
	addr := defaultListenAddr
	err = configuration.Get(&addr, cf, `listen_addr`)
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer(cf)
	if err != nil {
		return err
	}
	defer release()
	return service.Run(ctx, addr, a)
}

// newRequest reads -a and -b and parses -algorithm.
func newRequest() (*analyze.Request, error) {
	var req analyze.Request
	var err error
	req.Algorithm, err = overlap.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if fileA == `` {
		return nil, fmt.Errorf(`-a is required`)
	}
	req.TextA, err = readText(fileA)
	if err != nil {
		return nil, err
	}
	if fileB != `` {
		req.TextB, err = readText(fileB)
		if err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// readText reads a file as text, dropping invalid UTF-8.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ``, err
	}
	return strings.ToValidUTF8(string(data), ``), nil
}

// newAnalyzer returns a local analyzer, or a NATS client if -remote was given, and a function to release it.
func newAnalyzer(cf configuration.Interface) (analyze.Analyzer, func(), error) {
	if remote {
		ct, err := overlapnats.NewNATS(nil, cf)
		if err != nil {
			return nil, nil, err
		}
		return ct, ct.Release, nil
	}
	a, err := analyze.New(cf)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {}, nil
}

// loadConfiguration layers the environment over the -config file over the defaults and applies log_level.
func loadConfiguration() (configuration.Interface, error) {
	cf := configuration.Overlay{configuration.Environment(`OVERLAP_`)}
	if cfgFile != `` {
		file, err := configuration.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cf = append(cf, file)
	}
	cf = append(cf, defaults)

	var level string
	if err := configuration.Get(&level, cf, `log_level`); err != nil {
		return nil, err
	}
	lv, err := slog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	slog.Init(os.Stderr, lv)
	slog.Debug(`loaded configuration`, `items`, cf.Configured())
	return cf, nil
}

const defaultListenAddr = `localhost:7273`

var defaults = configuration.Map{
	`log_level`:   {`info`},
	`listen_addr`: {defaultListenAddr},
}
