package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithActions restricts the extension to record only the listed
// actions. By default all actions are enabled. Unknown actions are
// silently ignored.
//
// Example:
//
//	audithook.New(store,
//	    audithook.WithActions(
//	        audithook.ActionInvocationCompleted,
//	        audithook.ActionInvocationFailed,
//	    ),
//	)
func WithActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			e.enabled[a] = true
		}
	}
}

// WithLogger sets a custom logger for the extension.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) { e.logger = l }
}
