package ext

import (
	"context"
	"time"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/id"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Command lifecycle hooks
// ──────────────────────────────────────────────────

// CommandRegistered is called after a command is successfully
// registered with the host and the registry.
type CommandRegistered interface {
	OnCommandRegistered(ctx context.Context, c *command.Command) error
}

// CommandDisposed is called after a command is disposed and its host
// registration removed.
type CommandDisposed interface {
	OnCommandDisposed(ctx context.Context, c *command.Command) error
}

// ──────────────────────────────────────────────────
// Invocation lifecycle hooks
// ──────────────────────────────────────────────────

// InvocationStarted is called when a command's action begins executing.
type InvocationStarted interface {
	OnInvocationStarted(ctx context.Context, c *command.Command, inv id.InvocationID, trigger invoke.InvocationContext) error
}

// InvocationCompleted is called after an invocation finishes
// successfully.
type InvocationCompleted interface {
	OnInvocationCompleted(ctx context.Context, c *command.Command, inv id.InvocationID, elapsed time.Duration) error
}

// InvocationFailed is called when an invocation's action returns an
// error or panics.
type InvocationFailed interface {
	OnInvocationFailed(ctx context.Context, c *command.Command, inv id.InvocationID, err error) error
}

// ContextChanged is called whenever a command's invocation context
// transitions, both on entry to an invocation and on the reset to the
// idle state afterwards.
type ContextChanged interface {
	OnContextChanged(ctx context.Context, c *command.Command, ictx invoke.InvocationContext) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// ScheduleFired is called when a scheduler entry fires and dispatches
// a command.
type ScheduleFired interface {
	OnScheduleFired(ctx context.Context, entryName string, commandName string) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
