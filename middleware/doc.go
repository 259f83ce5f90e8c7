// Package middleware provides composable middleware for command
// execution.
//
// A [Middleware] is a function that wraps a command's action. Middleware
// are composed into a chain using [Chain] and applied by the engine
// around every invocation, regardless of trigger. They are applied
// right-to-left: the first middleware in the slice is the outermost
// wrapper.
//
//	// logging → recover → action
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs command name, trigger, duration, and outcome
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the action's context after a fixed duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-command duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, c *command.Command, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
