package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/invoke/command"
	"github.com/xraph/invoke/domain"
)

// tracerName is the instrumentation scope name for invoke tracing.
const tracerName = "github.com/xraph/invoke"

// Tracing returns middleware that wraps command execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: invoke.command.id, invoke.command.name,
// invoke.command.group, invoke.invocation_id, invoke.trigger,
// invoke.domain. On error, the span status is set to codes.Error with
// the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, c *command.Command, next Handler) error {
		inv, _ := command.InvocationFromContext(ctx)
		dom, _ := domain.FromContext(ctx)

		ctx, span := tracer.Start(ctx, "invoke.command.execute",
			trace.WithAttributes(
				attribute.String("invoke.command.id", c.ID().String()),
				attribute.String("invoke.command.name", c.Name()),
				attribute.String("invoke.command.group", c.Group()),
				attribute.String("invoke.invocation_id", inv.String()),
				attribute.String("invoke.trigger", c.Context().String()),
				attribute.String("invoke.domain", string(dom)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
