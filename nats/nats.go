// Package nats provides an analyze.Analyzer that sends requests to a NATS worker.  This is useful for building a
// multi-tier system where the analysis runs on machines dedicated to it, away from the service accepting uploads.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
	"github.com/swdunlop/overlap-go/analyze"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/nats/internal"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
	"github.com/swdunlop/overlap-go/nats/worker"
)

// NewNATS creates a client that analyzes requests using a worker reached through the provided NATS connection.  If
// conn is nil, a connection is dialed using the configuration and closed by Release.  The configuration should
// specify `worker_subject` to identify the worker, otherwise worker.DefaultSubject is used.
func NewNATS(conn *nats.Conn, cf configuration.Interface) (*Client, error) {
	ct := new(Client)
	ct.options = ClientOptions{
		WorkerSubject: worker.DefaultSubject,
		Timeout:       30,
	}
	if cf == nil {
		cf = configuration.Map{}
	}
	err := configuration.Unmarshal(&ct.options, cf)
	if err != nil {
		return nil, err
	}
	ct.conn = conn
	if ct.conn == nil {
		dial := internal.Defaults(`overlap-client`)
		err = configuration.Unmarshal(&dial, cf)
		if err != nil {
			return nil, err
		}
		ct.conn, err = dial.Dial(nats.ErrorHandler(handleNatsError))
		if err != nil {
			return nil, err
		}
		ct.release = ct.conn.Close
	}
	return ct, nil
}

// Client implements analyze.Analyzer by forwarding requests to a worker.  It is safe for concurrent use.
type Client struct {
	options ClientOptions
	conn    *nats.Conn
	release func() // used if NewNATS opened the connection
}

var _ analyze.Analyzer = (*Client)(nil)

func handleNatsError(conn *nats.Conn, sub *nats.Subscription, err error) {
	if sub == nil {
		slog.Error(`nats error`, `error`, err)
		return
	}
	slog.Error(`nats error`, `error`, err, `subject`, sub.Subject)
}

// Analyze implements analyze.Analyzer by sending the request to the worker and waiting for its reply.  If ctx has no
// deadline, the configured timeout applies.
func (ct *Client) Analyze(ctx context.Context, req *analyze.Request) (*analyze.Response, error) {
	job := nuid.Next()
	data, err := json.Marshal(&msg.WorkerRequest{Job: job, Analyze: req})
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && ct.options.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ct.options.Timeout)*time.Second)
		defer cancel()
	}
	slog.From(ctx).Debug(`sending request`, `subject`, ct.options.WorkerSubject, `job`, job)
	nm, err := ct.conn.RequestWithContext(ctx, ct.options.WorkerSubject, data)
	if err != nil {
		return nil, err
	}
	var ret msg.WorkerResponse
	err = json.Unmarshal(nm.Data, &ret)
	if err != nil {
		return nil, err
	}
	if ret.Error != nil {
		if ret.Error.Code == msg.ErrTextTooLong {
			return nil, fmt.Errorf(`%w, %v`, analyze.ErrTextTooLong, ret.Error.Err)
		}
		return nil, *ret.Error
	}
	if ret.Analyze == nil {
		return nil, fmt.Errorf(`empty response from worker for job %v`, job)
	}
	return ret.Analyze, nil
}

// Release closes the NATS connection if NewNATS opened it.
func (ct *Client) Release() {
	if ct.release != nil {
		ct.release()
		ct.release = nil
	}
	ct.conn = nil
}

// ClientOptions describes the options used to create a NATS client.  This is unmarshalled from the configuration
// provided to NewNATS.
type ClientOptions struct {
	// WorkerSubject identifies the NATS subject where requests should be sent.  This defaults to
	// worker.DefaultSubject, which matches the worker's default.
	WorkerSubject string `cfg:"worker_subject"`

	// Timeout bounds, in seconds, how long to wait for a reply when the request context has no deadline.  Defaults
	// to 30; zero waits as long as the context allows.
	Timeout int `cfg:"nats_timeout"`
}
