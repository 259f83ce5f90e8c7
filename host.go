package invoke

import (
	"context"

	"github.com/xraph/invoke/domain"
)

// NameState reports which host namespace, if any, already defines a
// command name. Anything other than NameUndefined blocks registration.
type NameState int

const (
	// NameUndefined: the name is free.
	NameUndefined NameState = iota

	// NameCore: defined by the host's statically compiled command set.
	NameCore

	// NameNative: defined by a native host module.
	NameNative

	// NameMacro: defined by a user macro.
	NameMacro

	// NameSystemVariable: shadows a host system variable.
	NameSystemVariable
)

// String returns the lowercase namespace name.
func (s NameState) String() string {
	switch s {
	case NameUndefined:
		return "undefined"
	case NameCore:
		return "core"
	case NameNative:
		return "native"
	case NameMacro:
		return "macro"
	case NameSystemVariable:
		return "sysvar"
	default:
		return "unknown"
	}
}

// Callback is the by-name entry point a command registers with the host
// interpreter. The host calls it from the document domain.
type Callback func(ctx context.Context)

// Host is the surface the framework consumes from the embedding
// application. Implementations must be safe for concurrent use; the
// framework calls them from both execution domains.
//
// Contract: Callback invocations arrive on the document domain, and the
// context passed to every method carries the caller's domain marker
// (see package domain).
type Host interface {
	// RegisterCommand defines name in the host's interpreter under the
	// given registry group. The host calls cb when the name is typed.
	RegisterCommand(group, name string, flags Flags, cb Callback) error

	// UnregisterCommand removes a previously registered name.
	// Unregistering an unknown name is a no-op.
	UnregisterCommand(group, name string) error

	// NameState reports whether name is already defined by another
	// mechanism (core command, native module, macro, system variable).
	NameState(name string) NameState

	// ActiveDocument reports whether a document is open and active.
	ActiveDocument(ctx context.Context) bool

	// Quiescent reports whether the active document is idle and safe
	// to mutate. False when no document is active.
	Quiescent(ctx context.Context) bool

	// ScheduleOnDocument queues fn to run on the document domain and
	// returns a pending handle resolved when fn completes.
	ScheduleOnDocument(fn domain.Func) *domain.Pending

	// ReportCommandError surfaces a by-name invocation failure through
	// the host's own error-reporting channel.
	ReportCommandError(ctx context.Context, name string, err error)
}
