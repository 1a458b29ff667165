package queue

import "context"

// Manual executes requests only when RunPending is called, on the caller's
// goroutine. Hosts without background workers and tests use it to control
// exactly when data arrives.
type Manual struct {
	pending []*Request
	inbox   []completion
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Submit(r *Request) {
	m.pending = append(m.pending, r)
}

// RunPending executes every queued request, including requests submitted
// while it runs, and returns how many ran.
func (m *Manual) RunPending(ctx context.Context) int {
	n := 0
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		for _, r := range batch {
			m.inbox = append(m.inbox, run(ctx, r))
			n++
		}
	}
	return n
}

func (m *Manual) Pending() int {
	return len(m.pending)
}

func (m *Manual) Drain() int {
	batch := m.inbox
	m.inbox = nil
	for _, c := range batch {
		c.deliver()
	}
	return len(batch)
}
