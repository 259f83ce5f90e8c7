// Package command defines the command entity, its registration and
// singleton lifecycle, and the registry that owns every live command.
//
// # Command Entity
//
// A [Command] is a named, invokable unit of work registered with a host.
// Names are case-insensitive and unique across all live commands, and at
// most one live instance exists per [Definition]. A command can be
// triggered three ways:
//
//   - implicitly, by name through the host's interpreter (the host calls
//     the registered callback from the document domain)
//   - explicitly, through the binding interface ([Command.Execute] /
//     [Command.ExecuteAsync]), with transparent relocation to the
//     document domain when required
//   - externally, by an out-of-band driver such as the scheduler or a
//     test harness ([Command.ExecuteExternal])
//
// While an action runs, the command's [invoke.InvocationContext] carries
// exactly one trigger bit plus, when executing in the application
// domain, the session bit. It is invoke.CtxNone at every other moment,
// including after failed invocations.
//
// # Defining a Command
//
// Use [Definition] with an action, or [NewTyped] for a typed parameter:
//
//	var Line = command.NewDefinition("LINE",
//	    func(ctx context.Context, param any) error {
//	        return drawLine(ctx)
//	    },
//	    command.WithGroup("DRAW"),
//	)
//
// # Registry
//
// [Registry] is the sole owner of record of live commands: removing an
// entry disposes its command and disposing a command removes its entry.
// The per-definition singleton slot lives in the registry, and
// [Registry.GetOrCreate] is the explicit get-or-create accessor.
//
// The engine package provides higher-level engine.Register and
// engine.InvokeByName wrappers that plug in the middleware chain and
// lifecycle extensions.
package command
