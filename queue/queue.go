// Package queue runs layer fetches off the frame thread.
//
// Requests execute on worker goroutines; their completions are buffered in an
// inbox and only applied when the frame thread calls Drain, so tile state is
// never mutated concurrently with a traversal.
package queue

import (
	"context"
	"errors"

	"github.com/teris-io/shortid"
)

// ErrDropped is passed to Done when EarlyDrop rejected the request.
var ErrDropped = errors.New("request dropped")

type Request struct {
	ID string
	// Execute runs on a worker goroutine.
	Execute func(ctx context.Context) (any, error)
	// EarlyDrop is checked right before execution; returning true abandons
	// the request. It runs on a worker goroutine.
	EarlyDrop func() bool
	// Done runs on the frame thread, from Drain.
	Done func(value any, err error)
}

// Scheduler is the contract layers submit their fetches to.
type Scheduler interface {
	Submit(r *Request)
	// Drain applies buffered completions and returns how many ran.
	Drain() int
}

type completion struct {
	req   *Request
	value any
	err   error
}

// NewRequest fills in a request id.
func NewRequest(execute func(ctx context.Context) (any, error), earlyDrop func() bool, done func(any, error)) *Request {
	id, err := shortid.Generate()
	if err != nil {
		id = ""
	}
	return &Request{
		ID:        id,
		Execute:   execute,
		EarlyDrop: earlyDrop,
		Done:      done,
	}
}

func run(ctx context.Context, r *Request) completion {
	if r.EarlyDrop != nil && r.EarlyDrop() {
		return completion{req: r, err: ErrDropped}
	}
	if err := ctx.Err(); err != nil {
		return completion{req: r, err: err}
	}
	v, err := r.Execute(ctx)
	return completion{req: r, value: v, err: err}
}

func (c completion) deliver() {
	if c.req.Done != nil {
		c.req.Done(c.value, c.err)
	}
}
