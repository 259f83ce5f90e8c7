// Package engine wires all Invoke subsystems together and provides
// the primary application-level API for registering and invoking
// commands.
//
// The engine package exists to break a fundamental import cycle: the
// root invoke package defines Host and Metadata (imported by command,
// scheduler, bridge, etc.) and therefore cannot import those packages
// back. Engine sits above all subsystem packages and below the
// application layer.
//
// # Building an Engine
//
//	h := hostmem.New()
//	h.Start()
//
//	eng, err := engine.Build(h,
//	    engine.WithLogger(logger),
//	    engine.WithExtension(myExtension),
//	    engine.WithHistory(store),
//	    engine.WithThrottle(throttle.GroupConfig{
//	        Group:          "DRAFTING",
//	        MaxConcurrency: 4,
//	    }),
//	)
//
// # Registering Commands
//
//	cmd, err := eng.Register(command.NewDefinition("SWEEP", sweepAction,
//	    command.WithGroup("DRAFTING"),
//	    command.WithFlags(invoke.Modal),
//	))
//
//	// Or from a YAML manifest:
//	eng.RegisterManifest(m, map[string]command.Action{"SWEEP": sweepAction})
//
// # Invoking
//
//	// As the host's interpreter would:
//	eng.InvokeByName(ctx, "sweep", nil)
//
//	// On a recurring schedule:
//	eng.Schedule("nightly-sweep", "0 2 * * *", "SWEEP", nil)
//	eng.Start(ctx)
//
// # Options
//
//   - [WithLogger] — set the structured logger all subsystems inherit
//   - [WithExtension] — register a lifecycle extension
//   - [WithMiddleware] — add a middleware to the execution chain
//   - [WithTimeout] — enforce a per-invocation deadline
//   - [WithThrottle] / [WithCommandThrottle] — rate limits and concurrency caps
//   - [WithHistory] — persist an audit trail of lifecycle events
//   - [WithTickInterval] / [WithDeferral] — scheduler cadence and busy-document backoff
//   - [WithTracerProvider] / [WithMeterProvider] — set the OpenTelemetry providers
//   - [WithMetricFactory] — set the metrics factory
package engine
