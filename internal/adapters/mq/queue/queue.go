// Package queue defines the contract for enqueuing and consuming finished games.
//
// Finished games leave the request path through a bounded in-memory queue
// so leaderboard writes never block a click.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/huehunt/internal/domain/model"
	"github.com/okian/huehunt/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Result represents the payload type flowing through the queue.
type Result = model.Result

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a result without blocking. It returns ErrFull or
	// ErrClosed when the result was not accepted.
	Enqueue(ctx context.Context, r Result) error

	// Dequeue returns a channel that receives results as they become available.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Result

	// Len returns the current number of queued results.
	Len(ctx context.Context) int

	// Close stops accepting results; queued results can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	results  chan Result
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.results = make(chan Result, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a result to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Result) error { //nolint:gocritic // hugeParam: Result is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", r.GameID, err)
	}

	select {
	case q.results <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.results))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return fmt.Errorf("%w: capacity %d", ErrFull, q.capacity)
	}
}

// Dequeue returns a channel that will receive results as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-q.results:
				if !ok {
					return
				}
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.results))
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued results.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.results)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.results)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
