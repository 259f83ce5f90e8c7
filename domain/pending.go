package domain

import (
	"context"
	"sync"
)

// Func is a unit of work relocated between domains.
type Func func(ctx context.Context) error

// Pending is a single-completion handle for work scheduled onto another
// domain. The scheduling side resolves it exactly once; any number of
// callers may wait on it.
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewPending creates an unresolved handle.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a handle that already completed with err. Used when
// the caller was in the correct domain and the work ran inline.
func Resolved(err error) *Pending {
	p := NewPending()
	p.resolve(err)
	return p
}

// resolve completes the handle. Second and later calls are no-ops.
func (p *Pending) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done returns a channel closed when the work completes.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the work's error. Valid only after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the work completes or ctx is cancelled. Cancellation
// abandons the wait, not the work: the relocated action still runs to
// completion on its domain.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
