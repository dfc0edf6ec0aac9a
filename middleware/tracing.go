package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ose-micro/mediator"
)

const instrumentationName = "github.com/ose-micro/mediator"

// Tracing wraps each request in a span from the global TracerProvider.
func Tracing() mediator.MiddlewareFunc {
	return TracingWithTracer(otel.Tracer(instrumentationName))
}

// TracingWithTracer is Tracing with an explicit tracer.
func TracingWithTracer(tracer trace.Tracer) mediator.MiddlewareFunc {
	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		ctx, span := tracer.Start(ctx, "mediator.send",
			trace.WithAttributes(
				attribute.String("mediator.request.name", request.RequestName()),
				attribute.String("mediator.request.id", request.RequestID().String()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		response, err := next(ctx, request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		span.SetStatus(codes.Ok, "")
		return response, nil
	}
}
