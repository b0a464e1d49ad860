package observability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gymdash/internal/models"
	contextutils "gymdash/internal/utils"
)

// TracerName is the instrumentation scope for spans created by this module.
const TracerName = "gymdash"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(TracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(TracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceFeatureRequestFunction starts a new span for a feature request lifecycle function.
func TraceFeatureRequestFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "feature_request", functionName, attributes...)
}

// TraceStoreFunction starts a new span for a store function.
func TraceStoreFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "store", functionName, attributes...)
}

// TraceUserFunction starts a new span for a user service function.
func TraceUserFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "user", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceNotificationFunction starts a new span for an email notification.
func TraceNotificationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "notification", functionName, attributes...)
}

// TraceIntegrationFunction starts a new span for an outbound integration call.
func TraceIntegrationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "integration", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeTenantID returns a tracing attribute for a tenant ID.
func AttributeTenantID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("tenant.id", id.String())
}

// AttributeRequestID returns a tracing attribute for a feature request ID.
func AttributeRequestID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("feature_request.id", id.String())
}

// AttributeUserID returns a tracing attribute for a user ID.
func AttributeUserID(id uuid.UUID) attribute.KeyValue {
	return attribute.String("user.id", id.String())
}

// AttributeRole returns a tracing attribute for the acting role.
func AttributeRole(role models.Role) attribute.KeyValue {
	return attribute.String("actor.role", string(role))
}

// AttributeStatus returns a tracing attribute for a lifecycle status.
func AttributeStatus(key string, status models.Status) attribute.KeyValue {
	return attribute.String("feature_request."+key, string(status))
}

// AttributePriority returns a tracing attribute for a request priority.
func AttributePriority(p models.Priority) attribute.KeyValue {
	return attribute.String("feature_request.priority", string(p))
}

// AttributeLimit returns a tracing attribute for a page size.
func AttributeLimit(limit int) attribute.KeyValue {
	return attribute.Int("limit", limit)
}

// AttributeOffset returns a tracing attribute for a page offset.
func AttributeOffset(offset int) attribute.KeyValue {
	return attribute.Int("offset", offset)
}

// AttributeErrorCode returns a tracing attribute for an AppError code.
func AttributeErrorCode(code contextutils.ErrorCode) attribute.KeyValue {
	return attribute.String("error.code", string(code))
}
