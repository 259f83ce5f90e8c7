package command

import (
	"context"
	"fmt"

	"github.com/xraph/invoke"
)

// Action is the type-erased operation a command performs. The parameter
// is the caller-supplied value, the command's default parameter, or —
// when neither is set — the command's current invocation context.
type Action func(ctx context.Context, param any) error

// Definition describes one concrete command type: metadata plus the
// action. At most one live [Command] exists per Definition at any time;
// the registry's singleton slot is keyed by the Definition value.
type Definition struct {
	// Meta is the command's interpreter name, group, and flags.
	Meta invoke.Metadata

	// Action is the operation to run on invocation.
	Action Action

	// DefaultParameter is passed to the action when the caller supplies
	// none. When nil, the current invocation context is passed instead.
	DefaultParameter any
}

// Option configures a Definition.
type Option func(*Definition)

// WithGroup sets the host registry group.
func WithGroup(group string) Option {
	return func(d *Definition) { d.Meta.Group = group }
}

// WithFlags sets the command's domain flags.
func WithFlags(flags invoke.Flags) Option {
	return func(d *Definition) { d.Meta.Flags = flags }
}

// WithQuiescentOnly restricts availability to a quiescent document.
func WithQuiescentOnly() Option {
	return func(d *Definition) { d.Meta.QuiescentOnly = true }
}

// WithDefaultParameter sets the parameter used when the caller supplies none.
func WithDefaultParameter(p any) Option {
	return func(d *Definition) { d.DefaultParameter = p }
}

// WithMetadata replaces the whole metadata block, e.g. one loaded from a
// manifest. The name given to NewDefinition still wins when the block's
// name is empty.
func WithMetadata(m invoke.Metadata) Option {
	return func(d *Definition) {
		if m.Name == "" {
			m.Name = d.Meta.Name
		}
		d.Meta = m
	}
}

// NewDefinition creates a command definition.
func NewDefinition(name string, action Action, opts ...Option) *Definition {
	def := &Definition{
		Meta:   invoke.Metadata{Name: name},
		Action: action,
	}
	for _, opt := range opts {
		opt(def)
	}
	return def
}

// NewTyped creates a definition whose action receives a typed parameter.
// The type-erased wrapper asserts the supplied parameter to T; a nil
// parameter becomes T's zero value, and a value of any other type is an
// invocation error.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func NewTyped[T any](name string, action func(ctx context.Context, param T) error, opts ...Option) *Definition {
	wrapped := func(ctx context.Context, param any) error {
		var t T
		if param != nil {
			var ok bool
			if t, ok = param.(T); !ok {
				return fmt.Errorf("command %q: parameter is %T, want %T", name, param, t)
			}
		}
		return action(ctx, t)
	}
	return NewDefinition(name, wrapped, opts...)
}
