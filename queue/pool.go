package queue

import (
	"context"
	"sync"
)

// Pool executes requests on a fixed number of worker goroutines.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending []*Request
	closed  bool
	wake    chan struct{}

	inboxMu sync.Mutex
	inbox   []completion

	inFlight sync.WaitGroup
	workers  sync.WaitGroup
}

func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit never blocks. After Close the request completes with ErrDropped on
// the next Drain.
func (p *Pool) Submit(r *Request) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.push(completion{req: r, err: ErrDropped})
		return
	}
	p.inFlight.Add(1)
	p.pending = append(p.pending, r)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) pop() *Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	r := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	if len(p.pending) > 0 {
		// Keep the other workers going.
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	return r
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.wake:
		}
		for p.ctx.Err() == nil {
			r := p.pop()
			if r == nil {
				break
			}
			p.push(run(p.ctx, r))
			p.inFlight.Done()
		}
	}
}

func (p *Pool) push(c completion) {
	p.inboxMu.Lock()
	p.inbox = append(p.inbox, c)
	p.inboxMu.Unlock()
}

// Drain must be called from the frame thread.
func (p *Pool) Drain() int {
	p.inboxMu.Lock()
	batch := p.inbox
	p.inbox = nil
	p.inboxMu.Unlock()

	for _, c := range batch {
		c.deliver()
	}
	return len(batch)
}

// Wait blocks until every submitted request has executed. Completions still
// need a Drain.
func (p *Pool) Wait() {
	p.inFlight.Wait()
}

// Close stops the workers. Running requests see their context canceled;
// requests not started yet are never executed and complete with ErrDropped
// on the next Drain.
func (p *Pool) Close() {
	p.cancel()
	p.workers.Wait()

	p.mu.Lock()
	p.closed = true
	left := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, r := range left {
		p.push(completion{req: r, err: ErrDropped})
		p.inFlight.Done()
	}
}
