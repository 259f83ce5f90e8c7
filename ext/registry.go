package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/id"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type commandRegisteredEntry struct {
	name string
	hook CommandRegistered
}

type commandDisposedEntry struct {
	name string
	hook CommandDisposed
}

type invocationStartedEntry struct {
	name string
	hook InvocationStarted
}

type invocationCompletedEntry struct {
	name string
	hook InvocationCompleted
}

type invocationFailedEntry struct {
	name string
	hook InvocationFailed
}

type contextChangedEntry struct {
	name string
	hook ContextChanged
}

type scheduleFiredEntry struct {
	name string
	hook ScheduleFired
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	commandRegistered   []commandRegisteredEntry
	commandDisposed     []commandDisposedEntry
	invocationStarted   []invocationStartedEntry
	invocationCompleted []invocationCompletedEntry
	invocationFailed    []invocationFailedEntry
	contextChanged      []contextChangedEntry
	scheduleFired       []scheduleFiredEntry
	shutdown            []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(CommandRegistered); ok {
		r.commandRegistered = append(r.commandRegistered, commandRegisteredEntry{name, h})
	}
	if h, ok := e.(CommandDisposed); ok {
		r.commandDisposed = append(r.commandDisposed, commandDisposedEntry{name, h})
	}
	if h, ok := e.(InvocationStarted); ok {
		r.invocationStarted = append(r.invocationStarted, invocationStartedEntry{name, h})
	}
	if h, ok := e.(InvocationCompleted); ok {
		r.invocationCompleted = append(r.invocationCompleted, invocationCompletedEntry{name, h})
	}
	if h, ok := e.(InvocationFailed); ok {
		r.invocationFailed = append(r.invocationFailed, invocationFailedEntry{name, h})
	}
	if h, ok := e.(ContextChanged); ok {
		r.contextChanged = append(r.contextChanged, contextChangedEntry{name, h})
	}
	if h, ok := e.(ScheduleFired); ok {
		r.scheduleFired = append(r.scheduleFired, scheduleFiredEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Command event emitters
// ──────────────────────────────────────────────────

// EmitCommandRegistered notifies all extensions that implement CommandRegistered.
func (r *Registry) EmitCommandRegistered(ctx context.Context, c *command.Command) {
	for _, e := range r.commandRegistered {
		if err := e.hook.OnCommandRegistered(ctx, c); err != nil {
			r.logHookError("OnCommandRegistered", e.name, err)
		}
	}
}

// EmitCommandDisposed notifies all extensions that implement CommandDisposed.
func (r *Registry) EmitCommandDisposed(ctx context.Context, c *command.Command) {
	for _, e := range r.commandDisposed {
		if err := e.hook.OnCommandDisposed(ctx, c); err != nil {
			r.logHookError("OnCommandDisposed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Invocation event emitters
// ──────────────────────────────────────────────────

// EmitInvocationStarted notifies all extensions that implement InvocationStarted.
func (r *Registry) EmitInvocationStarted(ctx context.Context, c *command.Command, inv id.InvocationID, trigger invoke.InvocationContext) {
	for _, e := range r.invocationStarted {
		if err := e.hook.OnInvocationStarted(ctx, c, inv, trigger); err != nil {
			r.logHookError("OnInvocationStarted", e.name, err)
		}
	}
}

// EmitInvocationCompleted notifies all extensions that implement InvocationCompleted.
func (r *Registry) EmitInvocationCompleted(ctx context.Context, c *command.Command, inv id.InvocationID, elapsed time.Duration) {
	for _, e := range r.invocationCompleted {
		if err := e.hook.OnInvocationCompleted(ctx, c, inv, elapsed); err != nil {
			r.logHookError("OnInvocationCompleted", e.name, err)
		}
	}
}

// EmitInvocationFailed notifies all extensions that implement InvocationFailed.
func (r *Registry) EmitInvocationFailed(ctx context.Context, c *command.Command, inv id.InvocationID, invErr error) {
	for _, e := range r.invocationFailed {
		if err := e.hook.OnInvocationFailed(ctx, c, inv, invErr); err != nil {
			r.logHookError("OnInvocationFailed", e.name, err)
		}
	}
}

// EmitContextChanged notifies all extensions that implement ContextChanged.
func (r *Registry) EmitContextChanged(ctx context.Context, c *command.Command, ictx invoke.InvocationContext) {
	for _, e := range r.contextChanged {
		if err := e.hook.OnContextChanged(ctx, c, ictx); err != nil {
			r.logHookError("OnContextChanged", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitScheduleFired notifies all extensions that implement ScheduleFired.
func (r *Registry) EmitScheduleFired(ctx context.Context, entryName, commandName string) {
	for _, e := range r.scheduleFired {
		if err := e.hook.OnScheduleFired(ctx, entryName, commandName); err != nil {
			r.logHookError("OnScheduleFired", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block execution.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}

// Compile-time check: the registry satisfies the command layer's
// emitter contract.
var _ command.Emitter = (*Registry)(nil)
