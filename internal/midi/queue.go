package midi

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue/v2"
)

// ErrQueueClosed is returned by Push after Close, and by Recv once a closed queue is drained
var ErrQueueClosed = errors.New("queue closed")

// Queue is an unbounded FIFO with any number of producers and one consumer.
// Push never blocks.
type Queue[T any] struct {
	mu     sync.Mutex
	items  *queue.Queue[T]
	closed bool
	notify chan struct{}
}

// NewQueue creates an empty queue
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items:  queue.New[T](),
		notify: make(chan struct{}, 1),
	}
}

// Push appends v
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items.Add(v)
	q.mu.Unlock()

	q.wake()
	return nil
}

// Recv blocks until an item is available, the queue is closed and drained,
// or ctx is done
func (q *Queue[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if q.items.Length() > 0 {
			v := q.items.Remove()
			q.mu.Unlock()
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close stops further pushes. Queued items can still be received.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
