package domain

import "context"

// ID identifies an execution domain.
type ID string

const (
	// Application is the domain for top-level idle and UI processing.
	Application ID = "application"

	// Document is the domain in which operations touching the active
	// document's state must run.
	Document ID = "document"
)

type ctxKey struct{}

// NewContext returns a context stamped with the given domain.
func NewContext(ctx context.Context, d ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the domain stamped on ctx. ok is false for
// contexts originating outside both loops (out-of-band callers).
func FromContext(ctx context.Context) (ID, bool) {
	d, ok := ctx.Value(ctxKey{}).(ID)
	return d, ok
}

// IsDocument reports whether ctx carries the document domain marker.
func IsDocument(ctx context.Context) bool {
	d, ok := FromContext(ctx)
	return ok && d == Document
}
