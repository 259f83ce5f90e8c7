package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/domain"
	"github.com/xraph/invoke/id"
)

// Invoker is the slice of the bridge dispatcher the command needs.
// bridge.Dispatcher satisfies it; it is defined locally to break the
// import cycle.
type Invoker interface {
	CanInvoke(ctx context.Context, quiescentOnly, documentRequired bool) bool
	InApplicationDomain(ctx context.Context) bool
	InvokeAsync(ctx context.Context, fn domain.Func) (*domain.Pending, error)
}

// Emitter receives command lifecycle events. ext.Registry provides the
// implementation; the engine layer plugs them together.
type Emitter interface {
	EmitCommandRegistered(ctx context.Context, c *Command)
	EmitCommandDisposed(ctx context.Context, c *Command)
	EmitInvocationStarted(ctx context.Context, c *Command, inv id.InvocationID, trigger invoke.InvocationContext)
	EmitInvocationCompleted(ctx context.Context, c *Command, inv id.InvocationID, elapsed time.Duration)
	EmitInvocationFailed(ctx context.Context, c *Command, inv id.InvocationID, err error)
	EmitContextChanged(ctx context.Context, c *Command, ictx invoke.InvocationContext)
}

type nopEmitter struct{}

func (nopEmitter) EmitCommandRegistered(context.Context, *Command) {}
func (nopEmitter) EmitCommandDisposed(context.Context, *Command)  {}
func (nopEmitter) EmitInvocationStarted(context.Context, *Command, id.InvocationID, invoke.InvocationContext) {
}
func (nopEmitter) EmitInvocationCompleted(context.Context, *Command, id.InvocationID, time.Duration) {
}
func (nopEmitter) EmitInvocationFailed(context.Context, *Command, id.InvocationID, error)    {}
func (nopEmitter) EmitContextChanged(context.Context, *Command, invoke.InvocationContext) {}

// Runner executes the command's action, usually wrapped in the engine's
// middleware chain. The default runner calls the definition's action
// directly.
type Runner func(ctx context.Context, c *Command, param any) error

// Command is a live, named, singleton instance of a [Definition],
// registered with both the host and the registry.
type Command struct {
	cid      id.CommandID
	meta     invoke.Metadata
	def      *Definition
	registry *Registry
	host     invoke.Host
	invoker  Invoker
	runner   Runner
	emitter  Emitter
	logger   *slog.Logger

	mu           sync.Mutex
	ictx         invoke.InvocationContext
	defaultParam any
	disposed     bool
	disposing    bool
	subs         map[int]func(*Command)
	nextSub      int
}

// CommandOption configures a Command at construction.
type CommandOption func(*Command)

// WithLogger sets the command's structured logger.
func WithLogger(l *slog.Logger) CommandOption {
	return func(c *Command) { c.logger = l }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(e Emitter) CommandOption {
	return func(c *Command) { c.emitter = e }
}

// WithRunner replaces the action runner, typically with the engine's
// middleware chain.
func WithRunner(r Runner) CommandOption {
	return func(c *Command) { c.runner = r }
}

// New constructs a Command and registers it, in strict order: resolve
// metadata, validate the name against the registry and the host's
// namespaces, install the definition's singleton slot, then register
// with the host and insert into the registry. A failure at any step
// rolls the earlier steps back — registration is never observable as
// partially complete.
func New(reg *Registry, h invoke.Host, inv Invoker, def *Definition, opts ...CommandOption) (*Command, error) {
	if def == nil || def.Action == nil {
		return nil, invoke.ErrNilAction
	}

	meta := def.Meta.Normalize()
	c := &Command{
		cid:          id.NewCommandID(),
		meta:         meta,
		def:          def,
		registry:     reg,
		host:         h,
		invoker:      inv,
		emitter:      nopEmitter{},
		logger:       slog.Default(),
		defaultParam: def.DefaultParameter,
		subs:         make(map[int]func(*Command)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = func(ctx context.Context, c *Command, param any) error {
			return c.def.Action(ctx, param)
		}
	}

	// Name validation: both our registry and the host's own namespaces
	// (core commands, native modules, macros, system variables).
	if reg.Contains(meta.Name) {
		return nil, fmt.Errorf("command %q: %w", meta.Name, invoke.ErrNameRegistered)
	}
	if state := h.NameState(meta.Name); state != invoke.NameUndefined {
		return nil, fmt.Errorf("command %q: defined as host %s: %w", meta.Name, state, invoke.ErrNameRegistered)
	}

	// Singleton slot.
	if err := reg.installSingleton(def, c); err != nil {
		return nil, fmt.Errorf("command %q: %w", meta.Name, err)
	}

	// Host registration, then registry insert, with rollback.
	if err := h.RegisterCommand(meta.Group, meta.Name, meta.Flags, c.implicitCallback); err != nil {
		reg.clearSingleton(def, c)
		return nil, fmt.Errorf("command %q: host registration: %w", meta.Name, err)
	}
	if err := reg.Add(c); err != nil {
		_ = h.UnregisterCommand(meta.Group, meta.Name)
		reg.clearSingleton(def, c)
		return nil, err
	}

	c.logger.Debug("command registered",
		slog.String("command_id", c.cid.String()),
		slog.String("name", meta.Name),
		slog.String("group", meta.Group),
		slog.String("flags", meta.Flags.String()),
	)
	c.emitter.EmitCommandRegistered(context.Background(), c)
	return c, nil
}

// ID returns the command's unique identifier.
func (c *Command) ID() id.CommandID { return c.cid }

// Name returns the interpreter name.
func (c *Command) Name() string { return c.meta.Name }

// Group returns the host registry group.
func (c *Command) Group() string { return c.meta.Group }

// Flags returns the command's domain flags.
func (c *Command) Flags() invoke.Flags { return c.meta.Flags }

// Definition returns the definition this command was created from.
func (c *Command) Definition() *Definition { return c.def }

// Context returns the current invocation context.
func (c *Command) Context() invoke.InvocationContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ictx
}

// Disposed reports whether the command has been disposed.
func (c *Command) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// DefaultParameter returns the parameter used when callers supply none.
func (c *Command) DefaultParameter() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultParam
}

// SetDefaultParameter replaces the default parameter.
func (c *Command) SetDefaultParameter(p any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultParam = p
}

// OnAvailabilityChanged subscribes fn to availability changes: every
// invocation-context transition and disposal. It returns an unsubscribe
// function. Subscribers re-query CanExecute.
func (c *Command) OnAvailabilityChanged(fn func(*Command)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.nextSub
	c.nextSub++
	c.subs[n] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, n)
	}
}

// CanExecute reports whether the binding interface may invoke the
// command right now: not disposed, not already executing, a document is
// active, and — for quiescent-only commands — the document is idle.
func (c *Command) CanExecute(ctx context.Context) bool {
	c.mu.Lock()
	if c.disposed || c.ictx != invoke.CtxNone {
		c.mu.Unlock()
		return false
	}
	quiescentOnly := c.meta.QuiescentOnly
	c.mu.Unlock()
	return c.invoker.CanInvoke(ctx, quiescentOnly, true)
}

// Execute invokes the command through the binding interface and blocks
// until the action completes, bridging to the document domain when the
// caller is in the application domain. Callers running on the
// application loop itself must use ExecuteAsync instead — blocking the
// loop would prevent the bridge from ever handing control back.
func (c *Command) Execute(ctx context.Context, param any) error {
	pending, err := c.execute(ctx, param, invoke.TriggerExplicit)
	if err != nil {
		return err
	}
	return pending.Wait(ctx)
}

// ExecuteAsync invokes the command through the binding interface and
// returns a pending handle, suspending nothing: the caller observes
// completion through the handle.
func (c *Command) ExecuteAsync(ctx context.Context, param any) (*domain.Pending, error) {
	return c.execute(ctx, param, invoke.TriggerExplicit)
}

// ExecuteExternal invokes the command on behalf of an out-of-band
// driver (automation, scheduler, tests). It blocks like Execute but
// marks the invocation with the external trigger.
func (c *Command) ExecuteExternal(ctx context.Context, param any) error {
	pending, err := c.execute(ctx, param, invoke.TriggerExternal)
	if err != nil {
		return err
	}
	return pending.Wait(ctx)
}

// execute is the explicit-invocation state machine.
func (c *Command) execute(ctx context.Context, param any, trigger invoke.InvocationContext) (*domain.Pending, error) {
	if c.Disposed() {
		return nil, fmt.Errorf("command %q: %w", c.meta.Name, invoke.ErrDisposed)
	}

	modal := c.meta.Flags.IsModal()
	inApp := c.invoker.InApplicationDomain(ctx)

	// A session command invoked from the document domain has no valid
	// bridge: the document loop cannot await the application loop.
	if !modal && !inApp {
		return nil, fmt.Errorf("command %q: session command invoked from document domain: %w",
			c.meta.Name, invoke.ErrInvalidTransition)
	}

	ictx := trigger
	if !modal {
		ictx |= invoke.CtxSession
	}
	c.setContext(ctx, ictx)
	param = c.effectiveParameter(param)

	if modal {
		// Wants the document domain: the dispatcher runs the action
		// inline when we are already there and relocates it otherwise.
		// The action resets the context itself, so the pending handle
		// resolves only after the command is idle again.
		pending, err := c.invoker.InvokeAsync(ctx, func(dctx context.Context) error {
			return c.run(dctx, param, ictx)
		})
		if err != nil {
			c.setContext(ctx, invoke.CtxNone)
			return nil, err
		}
		return pending, nil
	}

	// Session command in the application domain: already correct, run
	// on the caller's flow.
	return domain.Resolved(c.run(ctx, param, ictx)), nil
}

// implicitCallback is the by-name entry point registered with the host
// interpreter. The host contract guarantees it is called from the
// document domain, so the action runs inline and never suspends.
func (c *Command) implicitCallback(ctx context.Context) {
	if c.Disposed() {
		c.host.ReportCommandError(ctx, c.meta.Name, invoke.ErrDisposed)
		return
	}

	ictx := invoke.TriggerImplicit
	if !c.meta.Flags.IsModal() {
		ictx |= invoke.CtxSession
	}
	c.setContext(ctx, ictx)

	if err := c.run(ctx, c.effectiveParameter(nil), ictx); err != nil {
		c.host.ReportCommandError(ctx, c.meta.Name, err)
	}
}

// run executes the action through the runner and resets the invocation
// context unconditionally — success, error, or panic.
func (c *Command) run(ctx context.Context, param any, ictx invoke.InvocationContext) (err error) {
	inv := id.NewInvocationID()
	ctx = WithInvocation(ctx, inv)
	start := time.Now()

	defer func() {
		c.setContext(ctx, invoke.CtxNone)
	}()

	c.logger.Debug("invocation started",
		slog.String("command", c.meta.Name),
		slog.String("invocation_id", inv.String()),
		slog.String("trigger", ictx.String()),
	)
	c.emitter.EmitInvocationStarted(ctx, c, inv, ictx)

	err = c.runner(ctx, c, param)
	elapsed := time.Since(start)

	if err != nil {
		c.emitter.EmitInvocationFailed(ctx, c, inv, err)
		return err
	}
	c.emitter.EmitInvocationCompleted(ctx, c, inv, elapsed)
	return nil
}

// effectiveParameter resolves caller-supplied → default → current
// invocation context, in that order.
func (c *Command) effectiveParameter(supplied any) any {
	if supplied != nil {
		return supplied
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultParam != nil {
		return c.defaultParam
	}
	return c.ictx
}

// setContext transitions the invocation context, then notifies the
// emitter and availability subscribers outside the lock.
func (c *Command) setContext(ctx context.Context, ictx invoke.InvocationContext) {
	c.mu.Lock()
	if c.ictx == ictx {
		c.mu.Unlock()
		return
	}
	c.ictx = ictx
	subs := make([]func(*Command), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.emitter.EmitContextChanged(ctx, c, ictx)
	for _, fn := range subs {
		fn(c)
	}
}

// Dispose unregisters the command from the host, removes it from the
// registry, clears the definition's singleton slot, and marks the
// command disposed. It is idempotent and never fails: a second call is
// a no-op. A new instance of the definition may be constructed after
// the first call returns.
func (c *Command) Dispose(ctx context.Context) {
	c.mu.Lock()
	if c.disposed || c.disposing {
		c.mu.Unlock()
		return
	}
	c.disposing = true
	c.mu.Unlock()

	_ = c.host.UnregisterCommand(c.meta.Group, c.meta.Name)
	c.registry.detach(c)

	c.mu.Lock()
	c.disposed = true
	c.ictx = invoke.CtxNone
	subs := make([]func(*Command), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subs = make(map[int]func(*Command))
	c.mu.Unlock()

	c.logger.Debug("command disposed",
		slog.String("command_id", c.cid.String()),
		slog.String("name", c.meta.Name),
	)
	c.emitter.EmitCommandDisposed(ctx, c)
	for _, fn := range subs {
		fn(c)
	}
}
