// Package msg describes the protocol used between the NATS client and worker.
package msg

import "github.com/swdunlop/overlap-go/analyze"

// WorkerRequest is sent to the worker on the worker subject to ask it to do something on behalf of the client.  Only
// one of the pointer fields should be non-nil.
type WorkerRequest struct {
	// Job identifies the request and is echoed in the response.
	Job string `json:"job,omitempty"`

	// Analyze is a request to compare two texts.
	Analyze *analyze.Request `json:"analyze,omitempty"`
}

// WorkerResponse is sent from the worker as a reply to a WorkerRequest.  Only one of the pointer fields should be
// non-nil.
type WorkerResponse struct {
	// Job matches the job id from the WorkerRequest.
	Job string `json:"job,omitempty"`

	// Analyze is a response to an analyze request.
	Analyze *analyze.Response `json:"analyze,omitempty"`

	// Error is a response to any request that failed.
	Error *Error `json:"error,omitempty"`
}

// Error is used to indicate that a request failed.
type Error struct {
	Code int    `json:"code,omitempty"`
	Err  string `json:"error"`
}

// Error implements the error interface by returning the Err field, ignoring the Code field.
func (e Error) Error() string {
	return e.Err
}

// Error codes.
const (
	ErrUnknown            = iota // omitted error code, indicates an unknown error
	ErrIllegibleRequest          // request was not a valid JSON object
	ErrInvalidRequest            // request is missing required fields or has invalid values
	ErrUnsupportedCommand        // command was not found
	ErrShuttingDown              // worker is shutting down and will not accept new jobs
	ErrBusy                      // worker is busy and cannot accept new jobs at this time
	ErrAnalysisFailed            // analysis failed
	ErrTextTooLong               // a text exceeds the worker's limit
	ErrHookFailed                // a request hook failed
)
