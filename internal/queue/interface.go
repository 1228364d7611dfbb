package queue

import "context"

//go:generate mockgen -destination=mocks/mock_queue.go -package=mocks quickchat/internal/queue Queue,Fulfiller

// Queue defines the interface for job queue operations.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(job FulfillmentJob) error
	// Dequeue removes and returns the next job from the queue.
	Dequeue(ctx context.Context) (FulfillmentJob, error)
	// Close closes the queue.
	Close()
	// Len returns the current number of jobs in the queue.
	Len() int
	// Capacity returns the queue capacity.
	Capacity() int
}

// Fulfiller grants a paid purchase.
type Fulfiller interface {
	Fulfill(ctx context.Context, job FulfillmentJob) error
}

// Ensure MemoryQueue implements Queue interface
var _ Queue = (*MemoryQueue)(nil)

// Ensure Processor implements Fulfiller interface
var _ Fulfiller = (*Processor)(nil)
