package audithook

// Audit actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the history record.
const (
	ActionCommandRegistered   = "command.registered"
	ActionCommandDisposed     = "command.disposed"
	ActionInvocationStarted   = "invocation.started"
	ActionInvocationCompleted = "invocation.completed"
	ActionInvocationFailed    = "invocation.failed"
	ActionContextChanged      = "context.changed"
	ActionScheduleFired       = "schedule.fired"
)

// Severity levels recorded on history records.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcomes recorded on history records.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionCommandRegistered,
		ActionCommandDisposed,
		ActionInvocationStarted,
		ActionInvocationCompleted,
		ActionInvocationFailed,
		ActionContextChanged,
		ActionScheduleFired,
	}
}
