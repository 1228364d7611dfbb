// Package queue provides background fulfilment of paid credit purchases.
package queue

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FulfillmentJob grants the credits of one paid transaction.
type FulfillmentJob struct {
	TransactionID primitive.ObjectID
	// EventID is the payment provider event that triggered the job.
	EventID    string
	RetryCount int
}

// MemoryQueue is an in-memory job queue for fulfilment jobs.
type MemoryQueue struct {
	jobs     chan FulfillmentJob
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryQueue creates a new in-memory queue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{
		jobs:     make(chan FulfillmentJob, capacity),
		capacity: capacity,
	}
}

// Enqueue adds a job to the queue. Returns error if queue is full or closed.
// The read lock is held for the send so Close cannot close the channel under it.
func (q *MemoryQueue) Enqueue(job FulfillmentJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the next job from the queue, blocking until one is available.
// Returns error if context is cancelled or queue is closed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (FulfillmentJob, error) {
	select {
	case <-ctx.Done():
		return FulfillmentJob{}, ctx.Err()
	case job, ok := <-q.jobs:
		if !ok {
			return FulfillmentJob{}, ErrQueueClosed
		}
		return job, nil
	}
}

// Close closes the queue. Jobs already queued can still be dequeued.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}

// Len returns the current number of jobs in the queue.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the queue capacity.
func (q *MemoryQueue) Capacity() int {
	return q.capacity
}
