package bridge

import (
	"context"
	"log/slog"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/domain"
)

// Dispatcher performs domain detection, quiescence and availability
// gating, and synchronous/asynchronous relocation of actions onto the
// document domain. It holds no state beyond its collaborators and is
// safe for concurrent use.
type Dispatcher struct {
	host   invoke.Host
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher over the given host.
func New(h invoke.Host, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:   h,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CanInvoke reports whether an action with the given requirements could
// run right now: false when documentRequired and no document is active,
// or when quiescentOnly and the active document is busy.
func (d *Dispatcher) CanInvoke(ctx context.Context, quiescentOnly, documentRequired bool) bool {
	if documentRequired && !d.host.ActiveDocument(ctx) {
		return false
	}
	if quiescentOnly && !d.host.Quiescent(ctx) {
		return false
	}
	return true
}

// InApplicationDomain reports which domain the caller is executing in.
// Contexts without a domain marker (out-of-band callers) count as
// application-side: they are not the document domain, so document work
// must still be relocated.
func (d *Dispatcher) InApplicationDomain(ctx context.Context) bool {
	return !domain.IsDocument(ctx)
}

// Invoke runs fn on the document domain without waiting. If the caller
// is already there, fn executes inline and its error is returned. From
// the application domain the action is scheduled and Invoke returns
// immediately — the non-blocking form for callers that cannot suspend.
func (d *Dispatcher) Invoke(ctx context.Context, fn domain.Func) error {
	if fn == nil {
		return invoke.ErrNilAction
	}
	if !d.host.ActiveDocument(ctx) {
		return invoke.ErrNoActiveDocument
	}

	if domain.IsDocument(ctx) {
		return fn(ctx)
	}

	d.logger.Debug("relocating action to document domain", slog.Bool("wait", false))
	d.host.ScheduleOnDocument(fn)
	return nil
}

// InvokeAsync runs fn on the document domain and returns a pending
// handle resolved when it completes. If the caller is already there,
// fn executes inline and the handle is returned already resolved.
func (d *Dispatcher) InvokeAsync(ctx context.Context, fn domain.Func) (*domain.Pending, error) {
	if fn == nil {
		return nil, invoke.ErrNilAction
	}
	if !d.host.ActiveDocument(ctx) {
		return nil, invoke.ErrNoActiveDocument
	}

	if domain.IsDocument(ctx) {
		return domain.Resolved(fn(ctx)), nil
	}

	d.logger.Debug("relocating action to document domain", slog.Bool("wait", true))
	return d.host.ScheduleOnDocument(fn), nil
}
