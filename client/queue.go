package client

import "sync"

// CommandQueue is an unbounded FIFO of operator lines.  One goroutine
// pushes, the loop drains.
type CommandQueue struct {
	mu     sync.Mutex
	items  []string
	closed bool
}

// Push appends line.  Pushing to a closed queue is ignored.
func (q *CommandQueue) Push(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.items = append(q.items, line)
	}
}

// Drain removes and returns every queued line in order.
func (q *CommandQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Clear discards everything queued.
func (q *CommandQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Len returns the number of queued lines.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the end of input.
func (q *CommandQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Done reports whether input has ended and nothing is left to drain.
func (q *CommandQueue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}
