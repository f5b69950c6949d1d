package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "promptdesk"

// StartDirectorySpan starts a span for a tenant/user directory operation.
func StartDirectorySpan(ctx context.Context, op, tenantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "directory."+op,
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
}

// StartContentSpan starts a span for a content record operation.
func StartContentSpan(ctx context.Context, op, tenantID, recordID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "content."+op,
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("record.id", recordID),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
