package queue

import "errors"

// Enqueue errors. Callers holding a paid checkout treat both as "try later":
// the webhook asks Stripe to redeliver and the reconciler waits for its next
// pass.
var (
	// ErrQueueFull means every fulfilment slot is taken.
	ErrQueueFull = errors.New("fulfillment queue is full")
	// ErrQueueClosed means the processor is shutting down.
	ErrQueueClosed = errors.New("fulfillment queue is closed")
)
