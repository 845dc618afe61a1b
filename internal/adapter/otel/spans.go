package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskdock"

// StartRenderSpan starts a span for the render-to-PDF pipeline.
func StartRenderSpan(ctx context.Context, taskID, deliverableID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "render",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("deliverable.id", deliverableID),
		),
	)
}

// StartResolveSpan starts a span for sandbox path resolution.
func StartResolveSpan(ctx context.Context, raw string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "sandbox.resolve",
		trace.WithAttributes(attribute.String("path.raw", raw)),
	)
}
