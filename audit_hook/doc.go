// Package audithook bridges Invoke lifecycle events to the history
// audit trail. Register the Extension with the engine and every
// command registration, invocation outcome, context transition, and
// scheduler fire becomes a persisted history.Record.
//
// The backend is any history.Store: see history/memory, history/sqlite,
// and history/redis.
package audithook
