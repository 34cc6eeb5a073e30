// Package rtos holds the task-level primitives the player pipeline is built
// from: bounded queues, peripheral locks, suspendable tasks and a bounded
// spin-wait for hardware ready lines.
package rtos

import "context"

// Queue is a fixed-capacity FIFO hand-off between tasks. Items move through
// the queue by value, so whatever is popped belongs to the receiver.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a queue that holds at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("rtos: queue capacity must be positive")
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Push blocks until there is room for v or ctx is done.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushUntil is Push that gives up once stop is closed, reporting whether v
// was queued. A stop that is already closed wins over free room.
func (q *Queue[T]) PushUntil(ctx context.Context, v T, stop <-chan struct{}) (bool, error) {
	select {
	case <-stop:
		return false, nil
	default:
	}
	select {
	case q.ch <- v:
		return true, nil
	case <-stop:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// TryPush enqueues v only if there is room right now. It never blocks, which
// makes it the only push that is safe from interrupt context.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Pop blocks until an item is available or ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryPop dequeues an item if one is waiting.
func (q *Queue[T]) TryPop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len is the number of items currently queued.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap is the fixed capacity of the queue.
func (q *Queue[T]) Cap() int { return cap(q.ch) }
