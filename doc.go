// Package invoke provides a host-embeddable command framework for Go.
// It offers named, singleton, invokable commands that register against a
// host application's command interpreter and transparently relocate their
// execution between the host's application and document domains.
//
// Invoke is designed as a library, not a service. Import it, hand it a
// Host implementation, and register commands as ordinary Go functions.
//
// # Quick Start
//
//	eng, err := engine.Build(host,
//	    engine.WithMiddleware(middleware.Recover(logger)),
//	)
//	cmd, err := eng.Register(command.NewDefinition("LINE", drawLine))
//
// # Architecture
//
// The host exposes two mutually exclusive execution domains: the
// application domain (idle and UI processing) and the document domain
// (everything that mutates the active document). A command invoked from
// the wrong domain is relocated to the correct one by the bridge
// dispatcher — synchronously when the caller is already there,
// asynchronously (with a pending handle) otherwise.
//
// This root package holds the leaf types shared by every subsystem:
// command flags, invocation-context bits, metadata, the Host interface,
// and the sentinel errors. Subsystem packages (command, bridge, domain,
// engine, ...) sit above it.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package invoke
