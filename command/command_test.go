package command_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/bridge"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/domain"
	hostmem "github.com/xraph/invoke/host/memory"
)

type fixture struct {
	host *hostmem.Host
	disp *bridge.Dispatcher
	reg  *command.Registry
}

func newFixture(t *testing.T, opts ...hostmem.Option) *fixture {
	t.Helper()
	h := newHost(t, opts...)
	return &fixture{host: h, disp: bridge.New(h), reg: command.NewRegistry()}
}

func (f *fixture) register(t *testing.T, def *command.Definition) *command.Command {
	t.Helper()
	c, err := command.New(f.reg, f.host, f.disp, def)
	if err != nil {
		t.Fatalf("register %s: %v", def.Meta.Name, err)
	}
	return c
}

func TestExecute_ModalBridgesToDocumentDomain(t *testing.T) {
	f := newFixture(t)

	var (
		observedDoc  bool
		observedCtx  invoke.InvocationContext
		runs         atomic.Int32
	)
	c := f.register(t, command.NewDefinition("LINE", func(ctx context.Context, _ any) error {
		runs.Add(1)
		observedDoc = domain.IsDocument(ctx)
		return nil
	}))
	c.OnAvailabilityChanged(func(c *command.Command) {
		if ictx := c.Context(); ictx != invoke.CtxNone {
			observedCtx = ictx
		}
	})

	// Caller on the application side; the modal command must relocate.
	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if runs.Load() != 1 {
		t.Fatalf("action ran %d times, want exactly once", runs.Load())
	}
	if !observedDoc {
		t.Error("modal action did not observe the document domain")
	}
	if observedCtx != invoke.TriggerExplicit {
		t.Errorf("executing context = %v, want explicit", observedCtx)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after execution = %v, want none", c.Context())
	}
}

func TestExecute_ModalInlineInDocumentDomain(t *testing.T) {
	f := newFixture(t)

	var observedDoc bool
	c := f.register(t, command.NewDefinition("LINE", func(ctx context.Context, _ any) error {
		observedDoc = domain.IsDocument(ctx)
		return nil
	}))

	p := f.host.RunOnDocument(func(ctx context.Context) error {
		return c.Execute(ctx, nil)
	})
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !observedDoc {
		t.Error("action did not run in the document domain")
	}
}

func TestExecute_SessionRunsInApplicationDomain(t *testing.T) {
	f := newFixture(t)

	var during invoke.InvocationContext
	c := f.register(t, command.NewDefinition("COUNT", func(_ context.Context, _ any) error {
		return nil
	}, command.WithFlags(invoke.Session)))
	c.OnAvailabilityChanged(func(c *command.Command) {
		if ictx := c.Context(); ictx != invoke.CtxNone {
			during = ictx
		}
	})

	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := invoke.TriggerExplicit | invoke.CtxSession; during != want {
		t.Errorf("executing context = %v, want %v", during, want)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after execution = %v, want none", c.Context())
	}
}

func TestExecute_SessionFromDocumentDomainFails(t *testing.T) {
	f := newFixture(t)

	c := f.register(t, command.NewDefinition("COUNT", noop, command.WithFlags(invoke.Session)))

	p := f.host.RunOnDocument(func(ctx context.Context) error {
		_, err := c.ExecuteAsync(ctx, nil)
		if !errors.Is(err, invoke.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		return nil
	})
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after failed invocation = %v, want none", c.Context())
	}
}

func TestExecute_ContextResetsOnFailure(t *testing.T) {
	f := newFixture(t)

	want := errors.New("action failed")
	c := f.register(t, command.NewDefinition("LINE", func(_ context.Context, _ any) error {
		return want
	}))

	if err := c.Execute(context.Background(), nil); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after failure = %v, want none", c.Context())
	}
	if !c.CanExecute(context.Background()) {
		t.Error("command unavailable after failed invocation")
	}
}

func TestExecute_NoActiveDocument(t *testing.T) {
	f := newFixture(t, hostmem.WithoutDocument())

	c := f.register(t, command.NewDefinition("LINE", noop))

	if c.CanExecute(context.Background()) {
		t.Error("CanExecute true with no active document")
	}
	if err := c.Execute(context.Background(), nil); !errors.Is(err, invoke.ErrNoActiveDocument) {
		t.Fatalf("expected ErrNoActiveDocument, got %v", err)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after failure = %v, want none", c.Context())
	}
}

func TestCanExecute_FalseWhileExecuting(t *testing.T) {
	f := newFixture(t)

	var availableDuring bool
	var c *command.Command
	c = f.register(t, command.NewDefinition("LINE", func(ctx context.Context, _ any) error {
		availableDuring = c.CanExecute(ctx)
		return nil
	}))

	if !c.CanExecute(context.Background()) {
		t.Fatal("command should be available before execution")
	}
	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if availableDuring {
		t.Error("CanExecute reported true while the command was executing")
	}
}

func TestCanExecute_QuiescentOnly(t *testing.T) {
	f := newFixture(t)
	f.host.SetQuiescent(false)

	gated := f.register(t, command.NewDefinition("PLOT", noop, command.WithQuiescentOnly()))
	free := f.register(t, command.NewDefinition("LINE", noop))

	if gated.CanExecute(context.Background()) {
		t.Error("quiescent-only command available on a busy document")
	}
	if !free.CanExecute(context.Background()) {
		t.Error("unrestricted command unavailable on a busy document")
	}

	f.host.SetQuiescent(true)
	if !gated.CanExecute(context.Background()) {
		t.Error("quiescent-only command unavailable on an idle document")
	}
}

func TestImplicitInvocation(t *testing.T) {
	f := newFixture(t)

	var (
		during      invoke.InvocationContext
		observedDoc bool
	)
	var c *command.Command
	c = f.register(t, command.NewDefinition("LINE", func(ctx context.Context, _ any) error {
		during = c.Context()
		observedDoc = domain.IsDocument(ctx)
		return nil
	}))

	if err := f.host.Type(context.Background(), "LINE"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if during != invoke.TriggerImplicit {
		t.Errorf("executing context = %v, want implicit", during)
	}
	if !observedDoc {
		t.Error("implicit invocation did not run in the document domain")
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after invocation = %v, want none", c.Context())
	}
}

func TestImplicitInvocation_SessionBit(t *testing.T) {
	f := newFixture(t)

	var during invoke.InvocationContext
	var c *command.Command
	c = f.register(t, command.NewDefinition("COUNT", func(_ context.Context, _ any) error {
		during = c.Context()
		return nil
	}, command.WithFlags(invoke.Session)))

	if err := f.host.Type(context.Background(), "COUNT"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if want := invoke.TriggerImplicit | invoke.CtxSession; during != want {
		t.Errorf("executing context = %v, want %v", during, want)
	}
}

func TestImplicitInvocation_ErrorReportedThroughHost(t *testing.T) {
	f := newFixture(t)

	boom := errors.New("interpreter failure")
	c := f.register(t, command.NewDefinition("LINE", func(_ context.Context, _ any) error {
		return boom
	}))

	if err := f.host.Type(context.Background(), "LINE"); err != nil {
		t.Fatalf("type: %v", err)
	}

	reported := f.host.ReportedErrors()
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}
	if reported[0].Name != "LINE" || !errors.Is(reported[0].Err, boom) {
		t.Errorf("reported = %+v, want LINE/%v", reported[0], boom)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after failed implicit invocation = %v, want none", c.Context())
	}
}

func TestDefaultParameter(t *testing.T) {
	f := newFixture(t)

	var got any
	c := f.register(t, command.NewDefinition("LINE", func(_ context.Context, param any) error {
		got = param
		return nil
	}, command.WithDefaultParameter("fallback")))

	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "fallback" {
		t.Errorf("param = %v, want fallback", got)
	}

	if err := c.Execute(context.Background(), 42); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != 42 {
		t.Errorf("param = %v, want 42 (caller-supplied wins)", got)
	}
}

func TestDefaultParameter_FallsBackToContext(t *testing.T) {
	f := newFixture(t)

	var got any
	c := f.register(t, command.NewDefinition("LINE", func(_ context.Context, param any) error {
		got = param
		return nil
	}))

	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	ictx, ok := got.(invoke.InvocationContext)
	if !ok {
		t.Fatalf("param = %T, want InvocationContext", got)
	}
	if ictx != invoke.TriggerExplicit {
		t.Errorf("param = %v, want explicit trigger context", ictx)
	}
}

func TestDispose_Idempotent(t *testing.T) {
	f := newFixture(t)

	c := f.register(t, command.NewDefinition("LINE", noop))

	c.Dispose(context.Background())
	if f.reg.Contains("LINE") {
		t.Error("registry still contains LINE after dispose")
	}
	if !c.Disposed() {
		t.Error("command not marked disposed")
	}

	// Second call is a no-op.
	c.Dispose(context.Background())

	// Public operations on a disposed command fail.
	if err := c.Execute(context.Background(), nil); !errors.Is(err, invoke.ErrDisposed) {
		t.Errorf("Execute on disposed = %v, want ErrDisposed", err)
	}
	if c.CanExecute(context.Background()) {
		t.Error("CanExecute true on disposed command")
	}

	// The name is free for a new registration.
	if _, err := command.New(f.reg, f.host, f.disp, command.NewDefinition("LINE", noop)); err != nil {
		t.Errorf("re-register after dispose: %v", err)
	}
}

func TestDispose_ImplicitCallbackAfterDispose(t *testing.T) {
	f := newFixture(t)

	c := f.register(t, command.NewDefinition("LINE", noop))
	c.Dispose(context.Background())

	// The host no longer knows the name at all.
	if err := f.host.Type(context.Background(), "LINE"); err == nil {
		t.Error("expected unknown-command error after dispose")
	}
}

func TestNew_RollbackOnHostFailure(t *testing.T) {
	f := newFixture(t)
	failing := &failingHost{Host: f.host}

	def := command.NewDefinition("LINE", noop)
	_, err := command.New(f.reg, failing, f.disp, def)
	if err == nil {
		t.Fatal("expected host registration failure")
	}
	if f.reg.Contains("LINE") {
		t.Error("failed registration left a registry entry")
	}

	// The singleton slot was rolled back: registering against the real
	// host succeeds.
	if _, err := command.New(f.reg, f.host, f.disp, def); err != nil {
		t.Fatalf("register after rollback: %v", err)
	}
}

func TestExecuteExternal(t *testing.T) {
	f := newFixture(t)

	var during invoke.InvocationContext
	var c *command.Command
	c = f.register(t, command.NewDefinition("LINE", func(_ context.Context, _ any) error {
		during = c.Context()
		return nil
	}))

	if err := c.ExecuteExternal(context.Background(), nil); err != nil {
		t.Fatalf("external execute: %v", err)
	}
	if during != invoke.TriggerExternal {
		t.Errorf("executing context = %v, want external", during)
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after invocation = %v, want none", c.Context())
	}
}

func TestNewTyped(t *testing.T) {
	f := newFixture(t)

	type lineArgs struct{ From, To string }

	var got lineArgs
	c := f.register(t, command.NewTyped("LINE", func(_ context.Context, p lineArgs) error {
		got = p
		return nil
	}, command.WithDefaultParameter(lineArgs{From: "0,0", To: "1,1"})))

	if err := c.Execute(context.Background(), lineArgs{From: "2,2", To: "3,3"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got.From != "2,2" {
		t.Errorf("From = %q, want 2,2", got.From)
	}

	if err := c.Execute(context.Background(), "wrong type"); err == nil {
		t.Fatal("expected type mismatch error")
	}
	if c.Context() != invoke.CtxNone {
		t.Errorf("context after type mismatch = %v, want none", c.Context())
	}
}

func TestAvailabilityNotifications(t *testing.T) {
	f := newFixture(t)

	c := f.register(t, command.NewDefinition("LINE", noop))

	var changes atomic.Int32
	unsubscribe := c.OnAvailabilityChanged(func(_ *command.Command) {
		changes.Add(1)
	})

	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	// One transition into the executing context, one back to none.
	if n := changes.Load(); n != 2 {
		t.Errorf("availability notifications = %d, want 2", n)
	}

	unsubscribe()
	if err := c.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if n := changes.Load(); n != 2 {
		t.Errorf("notifications after unsubscribe = %d, want 2", n)
	}
}

// failingHost wraps a real host but rejects every registration.
type failingHost struct {
	invoke.Host
}

func (f *failingHost) RegisterCommand(string, string, invoke.Flags, invoke.Callback) error {
	return errors.New("host rejected registration")
}
