package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for directory operations.
const (
	AttrOperation = "directory.operation" // CreateUser, AddGroupMember, etc.
	AttrUserID    = "directory.user_id"   // directory object ID of a user
	AttrUsername  = "directory.username"  // user principal name
	AttrGroupID   = "directory.group_id"  // directory object ID of a group
	AttrStatus    = "http.response.status_code"
)

// StartDirectorySpan starts a span for an outbound directory service call.
// The span name follows the "directory.<Operation>" convention.
func StartDirectorySpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, "directory."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(AttrOperation, operation)),
	)
}

// EndDirectorySpan finalizes a directory call span with the HTTP status and
// any error returned by the call.
func EndDirectorySpan(span trace.Span, status int, err error) {
	span.SetAttributes(attribute.Int(AttrStatus, status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
