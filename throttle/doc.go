// Package throttle rate-limits driven command invocations with
// per-group and per-command token buckets and concurrency caps.
//
// The scheduler (and any other automation driver) consults a [Gate]
// before firing a command; interactive invocations bypass the gate.
//
// # Per-Group Configuration
//
// Use [GroupConfig] to set per-group rate limits and concurrency caps:
//
//	throttle.GroupConfig{
//	    Group:          "REPORTS",
//	    MaxConcurrency: 2,     // max 2 concurrent report commands
//	    RateLimit:      0.5,   // max one fire every 2 seconds
//	    RateBurst:      1,
//	}
//
// # Gate
//
// [Gate] enforces group and command limits at fire time. It uses a
// token-bucket rate limiter (golang.org/x/time/rate) and an
// active-count gate for concurrency limits.
//
//	g := throttle.NewGate(configs...)
//	if g.Acquire(group, name) {
//	    defer g.Release(group, name)
//	    // fire the command
//	}
//
// Groups without a [GroupConfig] have no limits.
package throttle
