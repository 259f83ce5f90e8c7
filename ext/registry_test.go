package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/ext"
	"github.com/xraph/invoke/id"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnCommandRegistered(_ context.Context, _ *command.Command) error {
	e.calls = append(e.calls, "OnCommandRegistered")
	return nil
}

func (e *allHooksExt) OnCommandDisposed(_ context.Context, _ *command.Command) error {
	e.calls = append(e.calls, "OnCommandDisposed")
	return nil
}

func (e *allHooksExt) OnInvocationStarted(_ context.Context, _ *command.Command, _ id.InvocationID, _ invoke.InvocationContext) error {
	e.calls = append(e.calls, "OnInvocationStarted")
	return nil
}

func (e *allHooksExt) OnInvocationCompleted(_ context.Context, _ *command.Command, _ id.InvocationID, _ time.Duration) error {
	e.calls = append(e.calls, "OnInvocationCompleted")
	return nil
}

func (e *allHooksExt) OnInvocationFailed(_ context.Context, _ *command.Command, _ id.InvocationID, _ error) error {
	e.calls = append(e.calls, "OnInvocationFailed")
	return nil
}

func (e *allHooksExt) OnContextChanged(_ context.Context, _ *command.Command, _ invoke.InvocationContext) error {
	e.calls = append(e.calls, "OnContextChanged")
	return nil
}

func (e *allHooksExt) OnScheduleFired(_ context.Context, _ string, _ string) error {
	e.calls = append(e.calls, "OnScheduleFired")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// invocationOnlyExt only implements invocation-related hooks.
type invocationOnlyExt struct {
	calls []string
}

func (e *invocationOnlyExt) Name() string { return "invocation-only" }

func (e *invocationOnlyExt) OnInvocationStarted(_ context.Context, _ *command.Command, _ id.InvocationID, _ invoke.InvocationContext) error {
	e.calls = append(e.calls, "OnInvocationStarted")
	return nil
}

func (e *invocationOnlyExt) OnInvocationCompleted(_ context.Context, _ *command.Command, _ id.InvocationID, _ time.Duration) error {
	e.calls = append(e.calls, "OnInvocationCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnInvocationStarted(_ context.Context, _ *command.Command, _ id.InvocationID, _ invoke.InvocationContext) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	inv := &invocationOnlyExt{}
	r.Register(all)
	r.Register(inv)

	ctx := context.Background()

	// Both implement OnInvocationStarted → both called.
	r.EmitInvocationStarted(ctx, nil, id.NewInvocationID(), invoke.TriggerExplicit)
	if len(all.calls) != 1 || all.calls[0] != "OnInvocationStarted" {
		t.Fatalf("all: expected [OnInvocationStarted], got %v", all.calls)
	}
	if len(inv.calls) != 1 || inv.calls[0] != "OnInvocationStarted" {
		t.Fatalf("inv: expected [OnInvocationStarted], got %v", inv.calls)
	}

	// Only all implements OnCommandRegistered → inv not called.
	r.EmitCommandRegistered(ctx, nil)
	if len(all.calls) != 2 || all.calls[1] != "OnCommandRegistered" {
		t.Fatalf("all: expected OnCommandRegistered as 2nd, got %v", all.calls)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("inv: should still have 1 call, got %v", inv.calls)
	}
}

func TestRegistry_AllHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()

	r.EmitCommandRegistered(ctx, nil)
	r.EmitInvocationStarted(ctx, nil, id.NewInvocationID(), invoke.TriggerImplicit)
	r.EmitInvocationCompleted(ctx, nil, id.NewInvocationID(), time.Second)
	r.EmitInvocationFailed(ctx, nil, id.NewInvocationID(), errors.New("fail"))
	r.EmitContextChanged(ctx, nil, invoke.CtxNone)
	r.EmitScheduleFired(ctx, "nightly-purge", "PURGE")
	r.EmitCommandDisposed(ctx, nil)
	r.EmitShutdown(ctx)

	expected := []string{
		"OnCommandRegistered", "OnInvocationStarted", "OnInvocationCompleted",
		"OnInvocationFailed", "OnContextChanged", "OnScheduleFired",
		"OnCommandDisposed", "OnShutdown",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	failing := &failingExt{}
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(failing)
	r.Register(all)

	ctx := context.Background()

	// No panic, no error propagation. allHooksExt should still fire.
	r.EmitInvocationStarted(ctx, nil, id.NewInvocationID(), invoke.TriggerExplicit)

	if len(all.calls) != 1 || all.calls[0] != "OnInvocationStarted" {
		t.Fatalf("all: expected [OnInvocationStarted] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ctx := context.Background()

	// None of these should panic or error.
	r.EmitCommandRegistered(ctx, nil)
	r.EmitCommandDisposed(ctx, nil)
	r.EmitInvocationStarted(ctx, nil, id.NewInvocationID(), invoke.TriggerExplicit)
	r.EmitInvocationCompleted(ctx, nil, id.NewInvocationID(), time.Second)
	r.EmitInvocationFailed(ctx, nil, id.NewInvocationID(), errors.New("x"))
	r.EmitContextChanged(ctx, nil, invoke.CtxNone)
	r.EmitScheduleFired(ctx, "test", "TEST")
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ext1 := &allHooksExt{}
	ext2 := &allHooksExt{}
	r.Register(ext1)
	r.Register(ext2)

	ctx := context.Background()
	r.EmitShutdown(ctx)

	// Both should be called.
	if len(ext1.calls) != 1 {
		t.Errorf("ext1: expected 1 call, got %d", len(ext1.calls))
	}
	if len(ext2.calls) != 1 {
		t.Errorf("ext2: expected 1 call, got %d", len(ext2.calls))
	}
}
