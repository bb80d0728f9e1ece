package bleadv

import (
	"context"
	"sync"
	"time"
)

// Enough room for the ready callback, the periodic ticks and a burst of
// stack dispatch requests.
const eventQueueDepth = 32

// EventQueue serializes callbacks onto a single dispatch goroutine. Producers
// only enqueue; nothing runs until Dispatch or DispatchForever consumes the
// queue, so no two callbacks ever execute concurrently.
type EventQueue struct {
	events chan func()

	done     chan struct{}
	stopOnce sync.Once
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		events: make(chan func(), eventQueueDepth),
		done:   make(chan struct{}),
	}
}

// Call enqueues fn for execution on the dispatch goroutine.
func (q *EventQueue) Call(fn func()) {
	q.events <- fn
}

// CallEvery arranges for fn to be enqueued once per interval. The ticker
// stops when Dispatch returns; under DispatchForever it runs for the life of
// the process. The callback itself executes on the dispatch goroutine like
// any other event.
func (q *EventQueue) CallEvery(interval time.Duration, fn func()) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				select {
				case q.events <- fn:
				case <-q.done:
					return
				}
			case <-q.done:
				return
			}
		}
	}()
}

// Dispatch consumes events until ctx is done. When it returns, the queue's
// periodic tickers are stopped.
func (q *EventQueue) Dispatch(ctx context.Context) {
	defer q.stopOnce.Do(func() { close(q.done) })
	for {
		select {
		case fn := <-q.events:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// DispatchForever consumes events and never returns.
func (q *EventQueue) DispatchForever() {
	for fn := range q.events {
		fn()
	}
}
