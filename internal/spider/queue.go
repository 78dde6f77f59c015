package spider

import (
	"errors"
	"sync"
)

var errQueueClosed = errors.New("spider: request queue closed")

// requestQueue is the unbounded in-memory frontier for one run. Parse steps
// push follow-up requests while every worker is busy, so pushes must never
// block. Cancellation is handled by closing the queue, which wakes all
// blocked workers.
type requestQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	requests []*Request
	closed   bool
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{
		requests: make([]*Request, 0),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *requestQueue) push(req *Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errQueueClosed
	}

	q.requests = append(q.requests, req)
	q.cond.Signal()
	return nil
}

// pop blocks until a request is available or the queue is closed
func (q *requestQueue) pop() (*Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.requests) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.requests) == 0 {
		return nil, errQueueClosed
	}

	req := q.requests[0]
	q.requests = q.requests[1:]
	return req, nil
}

// close drains nothing: already queued requests are still handed out, then
// pop starts returning errQueueClosed
func (q *requestQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// closeNow drops all pending requests and closes the queue
func (q *requestQueue) closeNow() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.requests = nil
	q.closed = true
	q.cond.Broadcast()
}
