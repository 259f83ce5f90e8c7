package command

import (
	"context"

	"github.com/xraph/invoke/id"
)

type invocationKey struct{}

// WithInvocation stamps ctx with the current invocation's ID. The
// command does this before running its action so middleware and
// extensions can correlate events.
func WithInvocation(ctx context.Context, inv id.InvocationID) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext returns the invocation ID stamped on ctx.
func InvocationFromContext(ctx context.Context) (id.InvocationID, bool) {
	inv, ok := ctx.Value(invocationKey{}).(id.InvocationID)
	return inv, ok
}
