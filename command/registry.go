package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/invoke"
)

// Registry is the sole owner of record of live commands. It maps
// case-insensitive names to commands, keeps a membership set for O(1)
// identity checks, and holds the per-definition singleton slots.
// Removing an entry disposes its command, and disposing a command
// removes its entry — the two operations are equivalent and idempotent.
// It is safe for concurrent use.
type Registry struct {
	logger *slog.Logger

	mu         sync.Mutex
	byKey      map[string]*Command
	members    map[*Command]struct{}
	singletons map[*Definition]*Command
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry's structured logger.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty command registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:     slog.Default(),
		byKey:      make(map[string]*Command),
		members:    make(map[*Command]struct{}),
		singletons: make(map[*Definition]*Command),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add inserts a command. It fails with invoke.ErrDuplicateName when an
// entry with the same case-insensitive name already exists.
func (r *Registry) Add(c *Command) error {
	if c == nil {
		return invoke.ErrNilAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := invoke.NameKey(c.Name())
	if _, ok := r.byKey[key]; ok {
		return fmt.Errorf("command %q: %w", c.Name(), invoke.ErrDuplicateName)
	}
	r.byKey[key] = c
	r.members[c] = struct{}{}
	return nil
}

// Remove removes a command and disposes it. Removing a command that is
// not a member is a no-op; Remove is idempotent.
func (r *Registry) Remove(ctx context.Context, c *Command) {
	if c == nil {
		return
	}

	r.mu.Lock()
	_, member := r.members[c]
	r.mu.Unlock()
	if !member {
		return
	}

	// Dispose detaches the entry; cascading ownership means removal and
	// disposal are the same operation.
	c.Dispose(ctx)
}

// Contains reports whether a command with the given case-insensitive
// name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[invoke.NameKey(name)]
	return ok
}

// Get returns the command registered under the given name.
func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byKey[invoke.NameKey(name)]
	return c, ok
}

// IsMember reports whether c is a live member of the registry.
func (r *Registry) IsMember(c *Command) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[c]
	return ok
}

// Live returns the live command for def, if any.
func (r *Registry) Live(def *Definition) (*Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.singletons[def]
	return c, ok
}

// GetOrCreate returns def's live command, constructing and registering
// one when none exists. This is the explicit accessor replacing lazy
// type activation: construction failures come back as errors.
func (r *Registry) GetOrCreate(h invoke.Host, inv Invoker, def *Definition, opts ...CommandOption) (*Command, error) {
	if def == nil {
		return nil, invoke.ErrNilAction
	}

	if c, ok := r.Live(def); ok {
		return c, nil
	}
	c, err := New(r, h, inv, def, opts...)
	if err != nil {
		// A concurrent GetOrCreate may have won the singleton slot.
		if live, ok := r.Live(def); ok {
			return live, nil
		}
		return nil, err
	}
	return c, nil
}

// Names returns all registered command names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.byKey))
	for _, c := range r.byKey {
		names = append(names, c.Name())
	}
	return names
}

// Len returns the number of live commands.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// Clear disposes every member and empties the registry. Used at
// process teardown.
func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	live := make([]*Command, 0, len(r.members))
	for c := range r.members {
		live = append(live, c)
	}
	r.mu.Unlock()

	for _, c := range live {
		c.Dispose(ctx)
	}
}

// installSingleton claims def's singleton slot for c. It fails with
// invoke.ErrSingletonViolation when another live instance holds it.
func (r *Registry) installSingleton(def *Definition, c *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.singletons[def]; ok {
		return invoke.ErrSingletonViolation
	}
	r.singletons[def] = c
	return nil
}

// clearSingleton releases def's slot if c still holds it.
func (r *Registry) clearSingleton(def *Definition, c *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.singletons[def] == c {
		delete(r.singletons, def)
	}
}

// detach removes c's entries without disposing it. Called from
// Command.Dispose, which owns the disposal sequencing.
func (r *Registry) detach(c *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := invoke.NameKey(c.Name())
	if r.byKey[key] == c {
		delete(r.byKey, key)
	}
	delete(r.members, c)
	if r.singletons[c.def] == c {
		delete(r.singletons, c.def)
	}
}
