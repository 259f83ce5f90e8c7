// Package bridge implements the execution-domain dispatcher. Given an
// action and the domain it requires, the dispatcher decides whether to
// run it inline (the caller is already in the document domain) or to
// relocate it there through the host's document-domain scheduler —
// without blocking the domain that must stay responsive.
//
// Invoke is the fire-and-forget form for callers that cannot suspend;
// InvokeAsync returns a pending handle for callers that can. Both fail
// with invoke.ErrNoActiveDocument when there is no document to run
// against.
package bridge
