// Package domain models the host's two logical execution domains —
// application and document — as serialized event loops, and provides the
// pending-handle primitive used to bridge work between them.
//
// Each domain has a single logical thread of control: a [Loop] runs
// posted callbacks one at a time, in FIFO order, on one goroutine.
// Mutual exclusion between domains is achieved by relocating work, never
// by locking around it.
//
// The current domain is an explicit capability carried on the
// context.Context, not ambient goroutine state. Loops stamp the contexts
// they pass to callbacks with their [ID]; callers query it with
// [FromContext].
package domain
