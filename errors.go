package invoke

import "errors"

var (
	// Registration errors.
	ErrDuplicateName      = errors.New("invoke: duplicate command name")
	ErrNameRegistered     = errors.New("invoke: name already registered with host")
	ErrSingletonViolation = errors.New("invoke: live instance of command type already exists")

	// Invocation errors.
	ErrNoActiveDocument  = errors.New("invoke: no active document")
	ErrInvalidTransition = errors.New("invoke: no bridge from document to application domain")
	ErrBusy              = errors.New("invoke: invocation refused by throttle")

	// Lifecycle errors.
	ErrDisposed  = errors.New("invoke: command is disposed")
	ErrNilAction = errors.New("invoke: nil action")
	ErrNotFound  = errors.New("invoke: command not found")
)
