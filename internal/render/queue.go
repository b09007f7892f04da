package render

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned once the peer goroutine has shut its side down.
var ErrQueueClosed = errors.New("render: queue closed")

// Queue is an unbounded multi-producer single-consumer FIFO. Send never
// blocks; the only backpressure point is the per-frame rendezvous.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items:   make([]T, 0, 64),
		notify:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

// Send appends v. Fails with ErrQueueClosed after Close.
func (q *Queue[T]) Send(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Recv blocks until an item is available, ctx is done, or the queue is
// closed and empty.
func (q *Queue[T]) Recv(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()

		var zero T
		if closed {
			return zero, ErrQueueClosed
		}
		select {
		case <-q.notify:
		case <-q.closeCh:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Drain returns everything queued without blocking. Items queued before
// Close are still delivered; ErrQueueClosed is only reported once empty.
func (q *Queue[T]) Drain() ([]T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		return nil, nil
	}
	out := q.items
	q.items = make([]T, 0, cap(out))
	return out, nil
}

// Close marks the queue closed. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.closeCh)
	})
}

// Done is closed when the queue is closed.
func (q *Queue[T]) Done() <-chan struct{} { return q.closeCh }

func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
