// Package scheduler fires commands on cron schedules, the automation
// driver for unattended hosts.
//
// # Entry
//
// An [Entry] represents a recurring command fire:
//   - Schedule: standard 5-field cron expression or descriptor
//     (e.g., "0 9 * * 1-5" or "@every 30s")
//   - Command: the registered command name to fire
//   - Param: static parameter passed on every fire
//   - Enabled: whether the entry fires
//
// # Quiescence
//
// A schedule only fires while the host has an active document sitting
// at a quiescent prompt. A busy document defers the fire; re-checks are
// spaced out on a backoff curve so a long-running interactive command
// does not get polled every tick.
//
// # Throttling
//
// A fire whose [InvokeFunc] reports invoke.ErrBusy was refused by a
// throttle downstream; the occurrence is deferred the same way a busy
// document defers it, not advanced past. Alternatively, a [Gate] may be
// configured to acquire a slot for the entry's group and command before
// the fire — use one or the other, not both.
//
// The [Scheduler] evaluates due entries on every tick, fires them
// through the engine-provided [InvokeFunc], and updates LastRunAt and
// NextRunAt. The ext.ScheduleFired extension hook fires after each
// successful fire.
package scheduler
