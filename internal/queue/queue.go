// Package queue provides the blocking job queue that carries file paths from
// the walker to the scan workers.
package queue

import (
	"sync"
)

// WorkQueue is a bounded multi-producer/multi-consumer queue of file paths.
// Close is the end-of-work signal: once called, Pop drains the remaining
// paths and then reports ok == false to every consumer.
type WorkQueue struct {
	jobs      chan string
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// New creates a queue holding up to capacity pending paths. A capacity below
// one is treated as one.
func New(capacity int) *WorkQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WorkQueue{
		jobs: make(chan string, capacity),
	}
}

// Push enqueues path, blocking while the queue is full. It returns false if
// the queue was already closed.
func (q *WorkQueue) Push(path string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	q.jobs <- path
	return true
}

// Pop blocks until a path is available or the queue is closed and drained.
func (q *WorkQueue) Pop() (string, bool) {
	path, ok := <-q.jobs
	return path, ok
}

// Close signals that no more paths will be pushed. It is safe to call more
// than once. Close waits for in-flight Push calls to finish, so it must not
// be called while a consumer-less producer is blocked on a full queue.
func (q *WorkQueue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})
}

// Cap returns the queue capacity.
func (q *WorkQueue) Cap() int {
	return cap(q.jobs)
}
