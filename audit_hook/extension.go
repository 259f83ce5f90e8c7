package audithook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/ext"
	"github.com/xraph/invoke/history"
	"github.com/xraph/invoke/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*Extension)(nil)
	_ ext.CommandRegistered   = (*Extension)(nil)
	_ ext.CommandDisposed     = (*Extension)(nil)
	_ ext.InvocationStarted   = (*Extension)(nil)
	_ ext.InvocationCompleted = (*Extension)(nil)
	_ ext.InvocationFailed    = (*Extension)(nil)
	_ ext.ContextChanged      = (*Extension)(nil)
	_ ext.ScheduleFired       = (*Extension)(nil)
)

// Extension persists lifecycle events as history records. Each hook
// builds a structured record and appends it through the history.Store.
type Extension struct {
	store   history.Store
	enabled map[string]bool // nil = all enabled
	logger  *slog.Logger
}

// New creates an Extension writing to the provided store.
func New(store history.Store, opts ...Option) *Extension {
	e := &Extension{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Command lifecycle hooks ─────────────────────────

// OnCommandRegistered implements ext.CommandRegistered.
func (e *Extension) OnCommandRegistered(ctx context.Context, c *command.Command) error {
	return e.record(ctx, ActionCommandRegistered, SeverityInfo, OutcomeSuccess,
		c.ID(), c, "", nil,
		"flags", c.Flags().String(),
	)
}

// OnCommandDisposed implements ext.CommandDisposed.
func (e *Extension) OnCommandDisposed(ctx context.Context, c *command.Command) error {
	return e.record(ctx, ActionCommandDisposed, SeverityInfo, OutcomeSuccess,
		c.ID(), c, "", nil)
}

// ── Invocation lifecycle hooks ──────────────────────

// OnInvocationStarted implements ext.InvocationStarted.
func (e *Extension) OnInvocationStarted(ctx context.Context, c *command.Command, inv id.InvocationID, trigger invoke.InvocationContext) error {
	return e.record(ctx, ActionInvocationStarted, SeverityInfo, OutcomeSuccess,
		inv, c, trigger.Trigger().String(), nil)
}

// OnInvocationCompleted implements ext.InvocationCompleted.
func (e *Extension) OnInvocationCompleted(ctx context.Context, c *command.Command, inv id.InvocationID, elapsed time.Duration) error {
	return e.record(ctx, ActionInvocationCompleted, SeverityInfo, OutcomeSuccess,
		inv, c, "", nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnInvocationFailed implements ext.InvocationFailed.
func (e *Extension) OnInvocationFailed(ctx context.Context, c *command.Command, inv id.InvocationID, invErr error) error {
	return e.record(ctx, ActionInvocationFailed, SeverityCritical, OutcomeFailure,
		inv, c, "", invErr)
}

// OnContextChanged implements ext.ContextChanged.
func (e *Extension) OnContextChanged(ctx context.Context, c *command.Command, ictx invoke.InvocationContext) error {
	return e.record(ctx, ActionContextChanged, SeverityInfo, OutcomeSuccess,
		c.ID(), c, "", nil,
		"context", ictx.String(),
	)
}

// ── Scheduler lifecycle hooks ───────────────────────

// OnScheduleFired implements ext.ScheduleFired.
func (e *Extension) OnScheduleFired(ctx context.Context, entryName, commandName string) error {
	if e.enabled != nil && !e.enabled[ActionScheduleFired] {
		return nil
	}
	e.append(ctx, &history.Record{
		ID:        id.NewRecordID(),
		Action:    ActionScheduleFired,
		Command:   commandName,
		Outcome:   OutcomeSuccess,
		Severity:  SeverityInfo,
		Metadata:  map[string]any{"entry": entryName},
		CreatedAt: time.Now(),
	})
	return nil
}

// ── Internal helpers ────────────────────────────────

// record builds and appends a history record if the action is enabled.
// Every record gets a fresh ID of its own; subject carries the entity
// the event concerns. The kvPairs argument is a list of key-value pairs
// added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	subject id.ID,
	c *command.Command,
	trigger string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	var meta map[string]any
	if len(kvPairs) > 0 || err != nil {
		meta = make(map[string]any, len(kvPairs)/2+1)
		for i := 0; i+1 < len(kvPairs); i += 2 {
			key, ok := kvPairs[i].(string)
			if !ok {
				continue
			}
			meta[key] = kvPairs[i+1]
		}
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	e.append(ctx, &history.Record{
		ID:        id.NewRecordID(),
		Subject:   subject,
		Action:    action,
		Command:   c.Name(),
		Group:     c.Group(),
		Trigger:   trigger,
		Outcome:   outcome,
		Severity:  severity,
		Reason:    reason,
		Metadata:  meta,
		CreatedAt: time.Now(),
	})
	return nil
}

// append persists the record. Store failures are logged, never
// propagated — the audit trail must not block execution.
func (e *Extension) append(ctx context.Context, r *history.Record) {
	if err := e.store.Append(ctx, r); err != nil {
		e.logger.Warn("audithook: failed to append history record",
			slog.String("action", r.Action),
			slog.String("command", r.Command),
			slog.String("error", err.Error()),
		)
	}
}
