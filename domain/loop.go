package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is resolved into pending handles whose work was posted to a
// loop that is not running.
var ErrStopped = errors.New("domain: loop stopped")

// Loop is a serialized executor for one execution domain. Posted
// callbacks run one at a time, in FIFO order, on a single goroutine
// whose contexts carry the loop's domain marker.
type Loop struct {
	id     ID
	logger *slog.Logger
	depth  int

	tasks  chan *task
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

type task struct {
	fn      Func
	pending *Pending
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the loop's structured logger.
func WithLoopLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) { lp.logger = l }
}

// WithQueueDepth sets the posted-task buffer size.
func WithQueueDepth(n int) LoopOption {
	return func(lp *Loop) { lp.depth = n }
}

// NewLoop creates a loop for the given domain.
func NewLoop(id ID, opts ...LoopOption) *Loop {
	l := &Loop{
		id:     id,
		logger: slog.Default(),
		depth:  64,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan *task, l.depth)
	l.stopCh = make(chan struct{})
	return l
}

// ID returns the loop's domain.
func (l *Loop) ID() ID { return l.id }

// Start launches the loop goroutine. It returns immediately.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}
	l.running = true

	l.wg.Add(1)
	go l.run()
}

// Stop signals the loop to stop and waits for the in-flight callback to
// finish. Tasks still queued are resolved with ErrStopped.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopCh)

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn to run on the loop and returns its pending handle.
// Posting to a stopped loop resolves the handle immediately with
// ErrStopped.
func (l *Loop) Post(fn Func) *Pending {
	p := NewPending()

	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if !running {
		p.resolve(ErrStopped)
		return p
	}

	select {
	case l.tasks <- &task{fn: fn, pending: p}:
		// The send can win the race against a concurrent Stop after
		// the loop goroutine has already drained and exited. Re-check
		// and sweep the queue so the handle still resolves; each task
		// is received exactly once, so a double drain is safe.
		select {
		case <-l.stopCh:
			l.drain()
		default:
		}
	case <-l.stopCh:
		p.resolve(ErrStopped)
	}
	return p
}

func (l *Loop) run() {
	defer l.wg.Done()

	base := NewContext(context.Background(), l.id)

	for {
		select {
		case t := <-l.tasks:
			t.pending.resolve(t.fn(base))
		case <-l.stopCh:
			l.drain()
			return
		}
	}
}

// drain resolves still-queued tasks so no waiter leaks across shutdown.
func (l *Loop) drain() {
	for {
		select {
		case t := <-l.tasks:
			t.pending.resolve(ErrStopped)
		default:
			return
		}
	}
}
