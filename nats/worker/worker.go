// Package worker implements a NATS-based worker that analyzes text comparison requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go"
	"github.com/swdunlop/overlap-go/analyze"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/nats/internal"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
)

// DefaultSubject is the subject workers subscribe to and clients send to unless configured otherwise.
const DefaultSubject = `overlap.worker.default`

// queueGroup spreads requests across every worker subscribed to the same subject.
const queueGroup = `overlap-worker`

// Run will run a NATS-based worker with the provided configuration until ctx is done.  Requests already being
// analyzed when ctx is done are allowed to finish and reply.
func Run(ctx context.Context, cf configuration.Interface, options ...Option) error {
	slog.From(ctx).Debug(`starting worker`)
	var w worker
	w.options = Options{
		WorkerSubject: DefaultSubject,
		Concurrency:   4,
	}
	w.dial = internal.Defaults(`overlap-worker`)
	if cf == nil {
		cf = configuration.Map{}
	}
	if err := configuration.Unmarshal(&w.options, cf); err != nil {
		return err
	}
	if err := configuration.Unmarshal(&w.dial, cf); err != nil {
		return err
	}
	if w.options.Concurrency < 1 {
		return fmt.Errorf(`worker_concurrency must be at least 1, got %d`, w.options.Concurrency)
	}
	for _, opt := range options {
		opt(&w)
		if w.err != nil {
			return w.err
		}
	}
	if w.analyzer == nil {
		local, err := analyze.New(cf)
		if err != nil {
			return err
		}
		w.analyzer = local
	}

	if w.conn == nil {
		var err error
		w.conn, err = w.dial.Dial()
		if err != nil {
			return err
		}
		defer w.conn.Close()
	}

	ch := make(chan *nats.Msg, w.options.Concurrency)
	slog.From(ctx).Debug(`subscribing to worker subject`, `subject`, w.options.WorkerSubject)
	sub, err := w.conn.ChanQueueSubscribe(w.options.WorkerSubject, queueGroup, ch)
	if err != nil {
		return err
	}
	if w.ready != nil {
		close(w.ready)
	}

	unsubscribed := make(chan struct{})
	defer func() { <-unsubscribed }()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(unsubscribed)
		<-ctx.Done()
		err := sub.Unsubscribe()
		if err != nil {
			slog.Warn(`failed to unsubscribe from worker subject`, `subject`, w.options.WorkerSubject, `err`, err.Error())
		}
		close(ch)
	}()

	w.slots = make(chan struct{}, w.options.Concurrency)
	w.run(ctx, ch)
	return nil
}

// Options describes the configuration options for a NATS-based worker.  The same configuration is passed on to the
// analyzer, so options such as chunk_length and max_text_length apply too.
type Options struct {
	// WorkerSubject is the NATS subject to subscribe to, defaults to overlap.worker.default.
	WorkerSubject string `cfg:"worker_subject"`

	// Concurrency limits how many requests are analyzed at once; further requests are rejected as busy.  Defaults
	// to 4.
	Concurrency int `cfg:"worker_concurrency"`
}

type worker struct {
	options  Options
	dial     internal.Options
	hooks    []func(ctx context.Context, req *analyze.Request) error
	conn     *nats.Conn
	analyzer analyze.Analyzer
	slots    chan struct{} // holds one token per running analysis.
	jobs     sync.WaitGroup
	ready    chan struct{} // closed once subscribed, if set.
	err      error         // set by options to indicate a fatal error.
}

func (w *worker) run(ctx context.Context, ch chan *nats.Msg) {
	defer w.jobs.Wait()
	for nm := range ch {
		w.process(ctx, nm)
	}
}

// process decodes a request and starts analyzing it, replying immediately if it cannot.
func (w *worker) process(ctx context.Context, nm *nats.Msg) {
	req, rejection := parseRequest(nm.Data)
	if rejection != nil {
		_ = w.respond(ctx, nm.Reply, rejection)
		return
	}

	select {
	case <-ctx.Done():
		w.reject(ctx, nm.Reply, req.Job, msg.ErrShuttingDown, `worker shutting down`)
		return
	default:
	}
	select {
	case w.slots <- struct{}{}:
	default:
		w.reject(ctx, nm.Reply, req.Job, msg.ErrBusy, `worker busy`)
		return
	}

	w.jobs.Add(1)
	go func() {
		defer func() {
			<-w.slots
			w.jobs.Done()
		}()
		// the analysis runs to completion even if the worker is stopping, so it gets its own context.
		jobCtx := slog.With(context.Background(), `job`, req.Job)
		_ = w.respond(jobCtx, nm.Reply, w.handle(jobCtx, req.Job, req.Analyze))
	}()
}

// parseRequest decodes a worker request, returning a rejection if it cannot be served.
func parseRequest(data []byte) (*msg.WorkerRequest, *msg.WorkerResponse) {
	var req msg.WorkerRequest
	err := json.Unmarshal(data, &req)
	switch {
	case err != nil:
		return nil, rejection(``, msg.ErrIllegibleRequest, err.Error())
	case req.Job == ``:
		return nil, rejection(``, msg.ErrInvalidRequest, `job id is required`)
	case req.Analyze == nil:
		return nil, rejection(req.Job, msg.ErrUnsupportedCommand, `command not supported`)
	}
	return &req, nil
}

// handle runs the hooks and the analyzer for a request, describing any failure in the response.
func (w *worker) handle(ctx context.Context, job string, req *analyze.Request) *msg.WorkerResponse {
	log := slog.From(ctx)
	log.Debug(`processing analyze request`,
		`algorithm`, req.Algorithm,
		`textA`, xxhash.Sum64String(req.TextA),
		`textB`, xxhash.Sum64String(req.TextB),
	)
	for _, hook := range w.hooks {
		err := hook(ctx, req)
		switch err := err.(type) {
		case nil:
			// do nothing
		case msg.Error:
			return rejection(job, err.Code, err.Err)
		default:
			return rejection(job, msg.ErrHookFailed, err.Error())
		}
	}

	rsp, err := w.analyzer.Analyze(ctx, req)
	switch {
	case err == nil:
		log.Debug(`finished analyze request`, `matchesA`, len(rsp.MatchesA), `matchesB`, len(rsp.MatchesB))
		return &msg.WorkerResponse{Job: job, Analyze: rsp}
	case errors.Is(err, analyze.ErrTextTooLong):
		return rejection(job, msg.ErrTextTooLong, err.Error())
	default:
		var remote msg.Error
		if errors.As(err, &remote) {
			return rejection(job, remote.Code, remote.Err)
		}
		log.Warn(`analysis failed`, `err`, err)
		return rejection(job, msg.ErrAnalysisFailed, err.Error())
	}
}

func rejection(job string, code int, message string) *msg.WorkerResponse {
	return &msg.WorkerResponse{
		Job: job,
		Error: &msg.Error{
			Code: code,
			Err:  message,
		},
	}
}

func (w *worker) reject(ctx context.Context, reply, job string, code int, message string) {
	_ = w.respond(ctx, reply, rejection(job, code, message))
}

func (w *worker) respond(ctx context.Context, subject string, resp *msg.WorkerResponse) error {
	if subject == `` {
		return nil // the sender did not ask for a reply.
	}
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	err = w.conn.Publish(subject, data)
	if err != nil {
		slog.From(ctx).Error(`failed to publish response`, `subject`, subject, `err`, err)
	}
	return err
}

// An Option is a function that alters a worker's behavior.
type Option func(*worker)

// Analyzer sets the analyzer used for requests instead of a local analyzer built from the configuration.
func Analyzer(analyzer analyze.Analyzer) Option {
	return func(w *worker) {
		if w.analyzer != nil {
			w.err = errors.New("only one analyzer can be used by a worker")
		}
		w.analyzer = analyzer
	}
}

// A Hook is a function that is called before a request is analyzed, allowing it to alter or refuse the request.
// Returning a msg.Error rejects the request with that error's code.
func Hook(hook func(ctx context.Context, req *analyze.Request) error) Option {
	return func(w *worker) { w.hooks = append(w.hooks, hook) }
}

// Conn sets the NATS connection to use for getting requests and publishing responses.  This is an alternative to
// letting the worker manage its own connection.
func Conn(conn *nats.Conn) Option {
	return func(w *worker) {
		if w.conn != nil {
			w.err = errors.New("only one NATS connection is used by a worker")
		}
		w.conn = conn
	}
}

// Ready closes ch once the worker has subscribed and can accept requests.
func Ready(ch chan struct{}) Option {
	return func(w *worker) { w.ready = ch }
}
