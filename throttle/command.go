package throttle

import (
	"fmt"

	"golang.org/x/time/rate"
)

// CommandConfig defines rate limits and concurrency for a specific
// command within a group.
type CommandConfig struct {
	// Group is the command group this config applies to.
	Group string

	// Command is the normalized command name.
	Command string

	// RateLimit is the sustained invocations per second for this
	// command.
	RateLimit float64

	// RateBurst is the burst size for the command's rate limiter.
	RateBurst int

	// MaxConcurrency limits simultaneous invocations of this command.
	// Zero means no command-specific concurrency limit.
	MaxConcurrency int
}

// commandState tracks runtime state for a single group+command pair.
type commandState struct {
	limiter        *rate.Limiter
	maxConcurrency int
	active         int
}

// commandKey builds the map key for a group+command pair.
func commandKey(group, command string) string {
	return fmt.Sprintf("%s:%s", group, command)
}

// SetCommandConfig configures rate limits and concurrency for a
// specific command within a group. Calling this multiple times for the
// same group+command replaces the previous configuration.
func (g *Gate) SetCommandConfig(cfg CommandConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := commandKey(cfg.Group, cfg.Command)
	existing := g.commands[key]

	cs := &commandState{
		maxConcurrency: cfg.MaxConcurrency,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		cs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	// Preserve current active count if reconfiguring.
	if existing != nil {
		cs.active = existing.active
	}
	g.commands[key] = cs
}

// CommandActiveCount returns the current number of active invocations
// for a group+command pair.
func (g *Gate) CommandActiveCount(group, command string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cs := g.commands[commandKey(group, command)]; cs != nil {
		return cs.active
	}
	return 0
}
