// Package ext defines the extension system for Invoke.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, writing audit trails, mirroring command state, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnInvocationCompleted(ctx context.Context, c *command.Command, inv id.InvocationID, elapsed time.Duration) error {
//	    log.Printf("command %s completed in %s", c.Name(), elapsed)
//	    return nil
//	}
//
// # Command Lifecycle Hooks
//
//   - [CommandRegistered] — a command was registered with the host
//   - [CommandDisposed] — a command was disposed and unregistered
//
// # Invocation Lifecycle Hooks
//
//   - [InvocationStarted] — a command's action began executing
//   - [InvocationCompleted] — an invocation finished successfully
//   - [InvocationFailed] — an invocation returned an error
//   - [ContextChanged] — a command's invocation context transitioned
//
// # Other Hooks
//
//   - [ScheduleFired] — a scheduler entry fired and dispatched a command
//   - [Shutdown] — the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
