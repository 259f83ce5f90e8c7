// Package engine wires all Invoke subsystems together. It creates the
// extension registry, command registry, domain bridge, middleware
// chain, scheduler, and throttle gate, and provides the
// Register/InvokeByName operations.
//
// This package exists to break the import cycle: the root invoke
// package defines Host and Metadata (imported by command, scheduler,
// etc.) and so cannot import those packages back. The engine package
// sits above all subsystem packages and below the application layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/invoke"
	audithook "github.com/xraph/invoke/audit_hook"
	"github.com/xraph/invoke/backoff"
	"github.com/xraph/invoke/bridge"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/ext"
	"github.com/xraph/invoke/history"
	"github.com/xraph/invoke/manifest"
	mw "github.com/xraph/invoke/middleware"
	"github.com/xraph/invoke/observability"
	"github.com/xraph/invoke/scheduler"
	"github.com/xraph/invoke/throttle"
)

// Engine composes a host with typed subsystem access.
// Use Build() to create one.
type Engine struct {
	host       invoke.Host
	registry   *command.Registry
	dispatcher *bridge.Dispatcher
	extensions *ext.Registry
	sched      *scheduler.Scheduler
	gate       *throttle.Gate
	logger     *slog.Logger

	mws         []mw.Middleware
	pendingExts []ext.Extension
	runner      command.Runner
	timeout     time.Duration

	// Throttle configuration.
	groupConfigs   []throttle.GroupConfig
	commandConfigs []throttle.CommandConfig

	// Scheduler configuration.
	tickInterval time.Duration
	deferral     backoff.Strategy

	// Audit trail (optional; nil means no history is kept).
	historyStore history.Store
	auditOpts    []audithook.Option

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Metric factory for the observability extension (optional; nil
	// means the default in-process collector).
	metricFactory gu.MetricFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger. All subsystems the
// engine creates inherit it.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = l
	}
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.pendingExts = append(eng.pendingExts, e)
	}
}

// WithMiddleware adds middleware to the engine's chain, after the
// default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithTimeout sets the per-invocation execution deadline enforced by
// the timeout middleware. Zero (the default) disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(eng *Engine) {
		eng.timeout = d
	}
}

// WithThrottle registers per-group rate limits and concurrency caps.
// Groups not listed have no limits.
func WithThrottle(configs ...throttle.GroupConfig) Option {
	return func(eng *Engine) {
		eng.groupConfigs = append(eng.groupConfigs, configs...)
	}
}

// WithCommandThrottle registers per-command limits layered under the
// group limits.
func WithCommandThrottle(configs ...throttle.CommandConfig) Option {
	return func(eng *Engine) {
		eng.commandConfigs = append(eng.commandConfigs, configs...)
	}
}

// WithHistory enables the audit trail: an audit extension is
// registered that persists lifecycle records through the given store.
// The caller owns the store and closes it after the engine stops.
func WithHistory(store history.Store, opts ...audithook.Option) Option {
	return func(eng *Engine) {
		eng.historyStore = store
		eng.auditOpts = append(eng.auditOpts, opts...)
	}
}

// WithTickInterval sets how often the scheduler scans for due entries.
func WithTickInterval(d time.Duration) Option {
	return func(eng *Engine) {
		eng.tickInterval = d
	}
}

// WithDeferral sets the backoff strategy used when a scheduled
// invocation finds the document busy or the gate closed.
func WithDeferral(strategy backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.deferral = strategy
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, the metrics middleware uses this provider instead of the
// global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// WithMetricFactory sets the metric factory for the observability
// extension. If not set, a default in-process collector is used.
func WithMetricFactory(f gu.MetricFactory) Option {
	return func(eng *Engine) {
		eng.metricFactory = f
	}
}

// Build creates an Engine over the given host.
func Build(h invoke.Host, opts ...Option) (*Engine, error) {
	if h == nil {
		return nil, fmt.Errorf("engine: nil host")
	}

	eng := &Engine{
		host:   h,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(eng)
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	eng.registry = command.NewRegistry(command.WithRegistryLogger(eng.logger))
	eng.dispatcher = bridge.New(h, bridge.WithLogger(eng.logger))

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.metricFactory != nil {
		obsExt = observability.NewMetricsExtensionWithFactory(eng.metricFactory)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	for _, e := range eng.pendingExts {
		eng.extensions.Register(e)
	}

	// Register the audit extension if a history store was provided.
	if eng.historyStore != nil {
		auditOpts := append([]audithook.Option{audithook.WithLogger(eng.logger)}, eng.auditOpts...)
		eng.extensions.Register(audithook.New(eng.historyStore, auditOpts...))
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/invoke")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/invoke")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Timeout(eng.timeout, eng.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	chain := mw.Chain(allMws...)
	eng.runner = func(ctx context.Context, c *command.Command, param any) error {
		return chain(ctx, c, func(ctx context.Context) error {
			return c.Definition().Action(ctx, param)
		})
	}

	// Create the throttle gate if any limits were configured.
	if len(eng.groupConfigs) > 0 || len(eng.commandConfigs) > 0 {
		eng.gate = throttle.NewGate(eng.groupConfigs...)
		for _, cfg := range eng.commandConfigs {
			eng.gate.SetCommandConfig(cfg)
		}
	}

	// Create the scheduler. Scheduled entries fire as External
	// invocations through InvokeByName, so the throttle gate is
	// consulted there exactly once; an ErrBusy fire defers the
	// occurrence rather than advancing past it.
	fire := func(ctx context.Context, name string, param any) error {
		return eng.InvokeByName(ctx, name, param)
	}
	schedOpts := []scheduler.Option{}
	if eng.tickInterval > 0 {
		schedOpts = append(schedOpts, scheduler.WithTickInterval(eng.tickInterval))
	}
	if eng.deferral != nil {
		schedOpts = append(schedOpts, scheduler.WithDeferral(eng.deferral))
	}
	eng.sched = scheduler.New(h, fire, eng.extensions, eng.logger, schedOpts...)

	return eng, nil
}

// Register constructs a live command from the definition and registers
// it with the host and the engine's registry. The command executes
// through the engine's middleware chain and reports lifecycle events
// to the engine's extensions.
func (eng *Engine) Register(def *command.Definition) (*command.Command, error) {
	return command.New(eng.registry, eng.host, eng.dispatcher, def, eng.commandOptions()...)
}

// GetOrCreate returns the live instance for the definition, creating
// one if none exists.
func (eng *Engine) GetOrCreate(def *command.Definition) (*command.Command, error) {
	return eng.registry.GetOrCreate(eng.host, eng.dispatcher, def, eng.commandOptions()...)
}

// Get returns the registered command with the given name.
func (eng *Engine) Get(name string) (*command.Command, bool) {
	return eng.registry.Get(name)
}

// Names returns the names of all registered commands.
func (eng *Engine) Names() []string {
	return eng.registry.Names()
}

// InvokeByName looks up a command and executes it as an External
// invocation. The throttle gate, when configured, is consulted first.
func (eng *Engine) InvokeByName(ctx context.Context, name string, param any) error {
	c, ok := eng.registry.Get(name)
	if !ok {
		return fmt.Errorf("command %q: %w", name, invoke.ErrNotFound)
	}

	if eng.gate != nil {
		if !eng.gate.Acquire(c.Group(), c.Name()) {
			return fmt.Errorf("command %q: %w", name, invoke.ErrBusy)
		}
		defer eng.gate.Release(c.Group(), c.Name())
	}

	return c.ExecuteExternal(ctx, param)
}

// RegisterManifest registers one command per manifest entry, binding
// each declared metadata to the action mapped under the same name.
// Actions are keyed case-insensitively. A manifest entry with no
// matching action is an error; extra actions are ignored.
func (eng *Engine) RegisterManifest(m *manifest.Manifest, actions map[string]command.Action) error {
	byKey := make(map[string]command.Action, len(actions))
	for name, action := range actions {
		byKey[invoke.NameKey(name)] = action
	}

	for _, mc := range m.Commands {
		action, ok := byKey[invoke.NameKey(mc.Name)]
		if !ok {
			return fmt.Errorf("manifest command %q: no action bound", mc.Name)
		}
		def := command.NewDefinition(mc.Name, action, command.WithMetadata(mc.Metadata()))
		if _, err := eng.Register(def); err != nil {
			return fmt.Errorf("manifest command %q: %w", mc.Name, err)
		}
	}
	return nil
}

// Schedule adds a recurring entry that invokes the named command as an
// External invocation on the given cron schedule.
func (eng *Engine) Schedule(entryName, expr, commandName string, param any) (*scheduler.Entry, error) {
	return eng.sched.Add(entryName, expr, commandName, param)
}

// Start begins schedule processing.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.sched.Start(ctx)
}

// Close shuts the engine down: the scheduler stops, every registered
// command is disposed, and extensions receive the shutdown hook. The
// host itself is not stopped; the caller owns it.
func (eng *Engine) Close(ctx context.Context) error {
	if err := eng.sched.Stop(ctx); err != nil {
		eng.logger.Error("scheduler stop error", slog.String("error", err.Error()))
	}

	eng.registry.Clear(ctx)
	eng.extensions.EmitShutdown(ctx)
	return nil
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// CommandRegistry returns the command registry.
func (eng *Engine) CommandRegistry() *command.Registry { return eng.registry }

// Dispatcher returns the domain bridge.
func (eng *Engine) Dispatcher() *bridge.Dispatcher { return eng.dispatcher }

// Scheduler returns the schedule runner.
func (eng *Engine) Scheduler() *scheduler.Scheduler { return eng.sched }

// Gate returns the throttle gate, or nil if no limits were configured.
func (eng *Engine) Gate() *throttle.Gate { return eng.gate }

func (eng *Engine) commandOptions() []command.CommandOption {
	return []command.CommandOption{
		command.WithLogger(eng.logger),
		command.WithEmitter(eng.extensions),
		command.WithRunner(eng.runner),
	}
}
