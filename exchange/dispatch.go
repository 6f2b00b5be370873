package exchange

import (
	"context"
	"sync"
)

// Dispatcher runs continuations on the context the host application
// designates, typically its main loop.
type Dispatcher interface {
	Dispatch(fn func())
}

type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs continuations on whichever goroutine completes the call.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// MainQueue is an unbounded FIFO drained by a single Run loop. Dispatch
// never blocks, so it is safe to call from the loop itself.
type MainQueue struct {
	mu    sync.Mutex
	tasks []func()
	ready chan struct{}
}

func NewMainQueue() *MainQueue {
	return &MainQueue{ready: make(chan struct{}, 1)}
}

func (q *MainQueue) Dispatch(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *MainQueue) pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return fn
}

// Run executes queued continuations until ctx is done.
func (q *MainQueue) Run(ctx context.Context) error {
	for {
		for fn := q.pop(); fn != nil; fn = q.pop() {
			fn()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.ready:
		}
	}
}

// RunOnce waits for one continuation and executes it.
func (q *MainQueue) RunOnce(ctx context.Context) error {
	for {
		if fn := q.pop(); fn != nil {
			fn()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.ready:
		}
	}
}
