package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/invoke"
	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/ext"
	"github.com/xraph/invoke/id"
)

// Compile-time interface checks.
var (
	_ ext.Extension           = (*MetricsExtension)(nil)
	_ ext.CommandRegistered   = (*MetricsExtension)(nil)
	_ ext.CommandDisposed     = (*MetricsExtension)(nil)
	_ ext.InvocationStarted   = (*MetricsExtension)(nil)
	_ ext.InvocationCompleted = (*MetricsExtension)(nil)
	_ ext.InvocationFailed    = (*MetricsExtension)(nil)
	_ ext.ContextChanged      = (*MetricsExtension)(nil)
	_ ext.ScheduleFired       = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via go-utils
// MetricFactory. Register it as an Invoke extension to automatically
// track registration counts, invocation rates, failure rates, context
// transitions, and scheduler fires.
type MetricsExtension struct {
	CommandsRegistered   gu.Counter
	CommandsDisposed     gu.Counter
	InvocationsStarted   gu.Counter
	InvocationsCompleted gu.Counter
	InvocationsFailed    gu.Counter
	ContextChanges       gu.Counter
	SchedulesFired       gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("invoke/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the
// provided MetricFactory.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		CommandsRegistered:   factory.Counter("invoke.command.registered"),
		CommandsDisposed:     factory.Counter("invoke.command.disposed"),
		InvocationsStarted:   factory.Counter("invoke.invocation.started"),
		InvocationsCompleted: factory.Counter("invoke.invocation.completed"),
		InvocationsFailed:    factory.Counter("invoke.invocation.failed"),
		ContextChanges:       factory.Counter("invoke.context.changed"),
		SchedulesFired:       factory.Counter("invoke.schedule.fired"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Command lifecycle hooks ─────────────────────────

// OnCommandRegistered implements ext.CommandRegistered.
func (m *MetricsExtension) OnCommandRegistered(_ context.Context, _ *command.Command) error {
	m.CommandsRegistered.Inc()
	return nil
}

// OnCommandDisposed implements ext.CommandDisposed.
func (m *MetricsExtension) OnCommandDisposed(_ context.Context, _ *command.Command) error {
	m.CommandsDisposed.Inc()
	return nil
}

// ── Invocation lifecycle hooks ──────────────────────

// OnInvocationStarted implements ext.InvocationStarted.
func (m *MetricsExtension) OnInvocationStarted(_ context.Context, _ *command.Command, _ id.InvocationID, _ invoke.InvocationContext) error {
	m.InvocationsStarted.Inc()
	return nil
}

// OnInvocationCompleted implements ext.InvocationCompleted.
func (m *MetricsExtension) OnInvocationCompleted(_ context.Context, _ *command.Command, _ id.InvocationID, _ time.Duration) error {
	m.InvocationsCompleted.Inc()
	return nil
}

// OnInvocationFailed implements ext.InvocationFailed.
func (m *MetricsExtension) OnInvocationFailed(_ context.Context, _ *command.Command, _ id.InvocationID, _ error) error {
	m.InvocationsFailed.Inc()
	return nil
}

// OnContextChanged implements ext.ContextChanged.
func (m *MetricsExtension) OnContextChanged(_ context.Context, _ *command.Command, _ invoke.InvocationContext) error {
	m.ContextChanges.Inc()
	return nil
}

// ── Scheduler lifecycle hooks ───────────────────────

// OnScheduleFired implements ext.ScheduleFired.
func (m *MetricsExtension) OnScheduleFired(_ context.Context, _ string, _ string) error {
	m.SchedulesFired.Inc()
	return nil
}
