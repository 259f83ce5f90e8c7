package invoke

import "strings"

// Flags declare which execution domain a command is intended to run in.
type Flags uint32

const (
	// Modal commands run in the document domain. A modal command invoked
	// from the application domain is relocated by the bridge dispatcher.
	Modal Flags = 1 << iota

	// Session commands run in the application domain and must not touch
	// the active document's state.
	Session
)

// DefaultFlags is applied when metadata declares no flags.
const DefaultFlags = Modal

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// IsModal reports whether the command wants the document domain.
// Session wins when both bits are set: a command that declares Session
// is an application-domain command regardless of Modal.
func (f Flags) IsModal() bool { return f.Has(Modal) && !f.Has(Session) }

// String returns a "|"-joined list of set flag names.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(Modal) {
		parts = append(parts, "modal")
	}
	if f.Has(Session) {
		parts = append(parts, "session")
	}
	return strings.Join(parts, "|")
}

// InvocationContext records how and where a command is currently
// executing. Exactly one trigger bit (TriggerImplicit, TriggerExplicit,
// TriggerExternal), plus optionally CtxSession, is set while the action
// runs; CtxNone otherwise — before the first invocation and after every
// invocation completes, including abnormal completion.
type InvocationContext uint32

const (
	// CtxNone means the command is not executing.
	CtxNone InvocationContext = 0

	// TriggerImplicit: invoked by name through the host's interpreter.
	TriggerImplicit InvocationContext = 1 << iota

	// TriggerExplicit: invoked through the binding interface.
	TriggerExplicit

	// TriggerExternal: invoked by an out-of-band driver (automation,
	// scheduler, test harness).
	TriggerExternal

	// CtxSession: the action is executing in the application domain.
	CtxSession
)

// Has reports whether all bits in mask are set.
func (c InvocationContext) Has(mask InvocationContext) bool { return c&mask == mask }

// Trigger returns the trigger bit with the session bit masked off.
func (c InvocationContext) Trigger() InvocationContext {
	return c &^ CtxSession
}

// String returns a "|"-joined list of set context bits.
func (c InvocationContext) String() string {
	if c == CtxNone {
		return "none"
	}
	var parts []string
	if c.Has(TriggerImplicit) {
		parts = append(parts, "implicit")
	}
	if c.Has(TriggerExplicit) {
		parts = append(parts, "explicit")
	}
	if c.Has(TriggerExternal) {
		parts = append(parts, "external")
	}
	if c.Has(CtxSession) {
		parts = append(parts, "session")
	}
	return strings.Join(parts, "|")
}
