package throttle

import (
	"sync"

	"golang.org/x/time/rate"
)

// GroupConfig defines per-group behaviour such as rate limiting and
// concurrency.
type GroupConfig struct {
	// Group is the command group identifier (matches Metadata.Group).
	Group string

	// MaxConcurrency limits how many commands from this group may run
	// simultaneously. Zero means no group-specific limit.
	MaxConcurrency int

	// RateLimit is the maximum sustained invocations per second that
	// may pass the gate for this group. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// groupState tracks runtime state for a single group.
type groupState struct {
	config  GroupConfig
	limiter *rate.Limiter
	active  int
}

// Gate controls per-group and per-command rate limiting and
// concurrency for driven invocations. It is safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	groups   map[string]*groupState
	commands map[string]*commandState
}

// NewGate creates a Gate with the given group configurations. Groups
// not listed here have no limits.
func NewGate(configs ...GroupConfig) *Gate {
	g := &Gate{
		groups:   make(map[string]*groupState, len(configs)),
		commands: make(map[string]*commandState),
	}
	for _, cfg := range configs {
		g.groups[cfg.Group] = newGroupState(cfg)
	}
	return g
}

func newGroupState(cfg GroupConfig) *groupState {
	gs := &groupState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		gs.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return gs
}

// Acquire checks rate limits and concurrency for the given group and
// command. If the invocation is allowed to proceed it increments the
// active counters and returns true. The caller MUST call Release when
// the invocation completes.
func (g *Gate) Acquire(group, command string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Check group-level constraints.
	gs := g.groups[group]
	if gs != nil {
		if gs.limiter != nil && !gs.limiter.Allow() {
			return false
		}
		if gs.config.MaxConcurrency > 0 && gs.active >= gs.config.MaxConcurrency {
			return false
		}
	}

	// Check command-level constraints.
	if command != "" {
		cs := g.commands[commandKey(group, command)]
		if cs != nil {
			if cs.limiter != nil && !cs.limiter.Allow() {
				return false
			}
			if cs.maxConcurrency > 0 && cs.active >= cs.maxConcurrency {
				return false
			}
			cs.active++
		}
	}

	// Increment group active count.
	if gs != nil {
		gs.active++
	}

	return true
}

// Release decrements the active invocation count for the group and
// command.
func (g *Gate) Release(group, command string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gs := g.groups[group]; gs != nil && gs.active > 0 {
		gs.active--
	}

	if command != "" {
		if cs := g.commands[commandKey(group, command)]; cs != nil && cs.active > 0 {
			cs.active--
		}
	}
}

// SetGroupConfig dynamically updates (or creates) a group configuration.
func (g *Gate) SetGroupConfig(cfg GroupConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing := g.groups[cfg.Group]
	gs := newGroupState(cfg)

	// Preserve current active count if reconfiguring.
	if existing != nil {
		gs.active = existing.active
	}
	g.groups[cfg.Group] = gs
}

// ActiveCount returns the current number of active invocations for a
// group.
func (g *Gate) ActiveCount(group string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gs := g.groups[group]; gs != nil {
		return gs.active
	}
	return 0
}
