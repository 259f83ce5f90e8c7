// Package memory provides an in-process simulated host for tests and
// examples. It runs a real application loop and document loop, keeps an
// interpreter name table, and lets callers toggle document presence and
// quiescence.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/domain"
)

// Compile-time interface check.
var _ invoke.Host = (*Host)(nil)

type registration struct {
	group string
	name  string
	flags invoke.Flags
	cb    invoke.Callback
}

// ReportedError is one entry in the host's error-reporting channel.
type ReportedError struct {
	Name string
	Err  error
}

// Host simulates an embedding application: two serialized execution
// domains, a command interpreter table, and pre-defined host names.
type Host struct {
	appLoop *domain.Loop
	docLoop *domain.Loop
	logger  *slog.Logger

	mu        sync.Mutex
	commands  map[string]registration
	names     map[string]invoke.NameState
	activeDoc bool
	quiescent bool
	reported  []ReportedError
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithDefinedName pre-defines a host-side name (core command, macro,
// system variable, ...) that blocks framework registrations.
func WithDefinedName(name string, state invoke.NameState) Option {
	return func(h *Host) { h.names[invoke.NameKey(name)] = state }
}

// WithoutDocument starts the host with no active document.
func WithoutDocument() Option {
	return func(h *Host) { h.activeDoc = false }
}

// New creates a simulated host. It starts with one active, quiescent
// document unless configured otherwise. Call Start before use.
func New(opts ...Option) *Host {
	h := &Host{
		logger:    slog.Default(),
		commands:  make(map[string]registration),
		names:     make(map[string]invoke.NameState),
		activeDoc: true,
		quiescent: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.appLoop = domain.NewLoop(domain.Application, domain.WithLoopLogger(h.logger))
	h.docLoop = domain.NewLoop(domain.Document, domain.WithLoopLogger(h.logger))
	return h
}

// Start launches both domain loops.
func (h *Host) Start() {
	h.appLoop.Start()
	h.docLoop.Start()
}

// Stop shuts both loops down.
func (h *Host) Stop(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.appLoop.Stop(ctx) })
	g.Go(func() error { return h.docLoop.Stop(ctx) })
	return g.Wait()
}

// ──────────────────────────────────────────────────
// invoke.Host implementation
// ──────────────────────────────────────────────────

// RegisterCommand defines name in the interpreter table.
func (h *Host) RegisterCommand(group, name string, flags invoke.Flags, cb invoke.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := invoke.NameKey(name)
	if _, ok := h.commands[key]; ok {
		return fmt.Errorf("memory: command %q already defined", name)
	}
	h.commands[key] = registration{group: group, name: name, flags: flags, cb: cb}
	h.logger.Debug("host registered command",
		slog.String("name", name),
		slog.String("group", group),
		slog.String("flags", flags.String()),
	)
	return nil
}

// UnregisterCommand removes name from the interpreter table.
func (h *Host) UnregisterCommand(group, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.commands, invoke.NameKey(name))
	return nil
}

// NameState reports pre-defined host names. Names registered through
// RegisterCommand are tracked by the framework's own registry and are
// not reported here.
func (h *Host) NameState(name string) invoke.NameState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.names[invoke.NameKey(name)]
}

// ActiveDocument reports whether a document is open.
func (h *Host) ActiveDocument(_ context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeDoc
}

// Quiescent reports whether the active document is idle.
func (h *Host) Quiescent(_ context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeDoc && h.quiescent
}

// ScheduleOnDocument queues fn onto the document loop.
func (h *Host) ScheduleOnDocument(fn domain.Func) *domain.Pending {
	return h.docLoop.Post(fn)
}

// ReportCommandError records a by-name invocation failure.
func (h *Host) ReportCommandError(_ context.Context, name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reported = append(h.reported, ReportedError{Name: name, Err: err})
	h.logger.Warn("command error",
		slog.String("name", name),
		slog.String("error", err.Error()),
	)
}

// ──────────────────────────────────────────────────
// Simulation controls
// ──────────────────────────────────────────────────

// SetActiveDocument toggles document presence.
func (h *Host) SetActiveDocument(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeDoc = active
}

// SetQuiescent toggles document quiescence.
func (h *Host) SetQuiescent(q bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quiescent = q
}

// RunOnApplication posts fn to the application loop — the way a UI
// event handler would run in a real host.
func (h *Host) RunOnApplication(fn domain.Func) *domain.Pending {
	return h.appLoop.Post(fn)
}

// RunOnDocument posts fn straight to the document loop.
func (h *Host) RunOnDocument(fn domain.Func) *domain.Pending {
	return h.docLoop.Post(fn)
}

// Type simulates typing name at the interpreter: the registered
// callback runs on the document domain, per the host contract for
// by-name invocation. It blocks until the command returns.
func (h *Host) Type(ctx context.Context, name string) error {
	h.mu.Lock()
	reg, ok := h.commands[invoke.NameKey(name)]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("memory: unknown command %q", name)
	}

	p := h.docLoop.Post(func(ctx context.Context) error {
		reg.cb(ctx)
		return nil
	})
	return p.Wait(ctx)
}

// ReportedErrors returns a copy of the error-reporting channel's log.
func (h *Host) ReportedErrors() []ReportedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ReportedError, len(h.reported))
	copy(out, h.reported)
	return out
}
