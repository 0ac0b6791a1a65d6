package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "promptarena"

// StartRunSpan starts a span covering one run's full variant loop.
func StartRunSpan(ctx context.Context, runID string, variantCount int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.variant_count", variantCount),
		),
	)
}

// StartVariantSpan starts a span for a single variant execution.
func StartVariantSpan(ctx context.Context, runID, variantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "variant",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("variant.id", variantID),
		),
	)
}
