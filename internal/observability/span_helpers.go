package observability

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "gymdash/internal/utils"
)

// FinishSpan ends a span and records any error pointed to by errPtr.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
//
// Expected client errors (validation, not found, refused transitions) are tagged
// on the span but do not mark it as failed.
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr != nil && *errPtr != nil {
		err := *errPtr
		span.SetAttributes(AttributeErrorCode(contextutils.GetErrorCode(err)))
		if isClientError(err) {
			span.End()
			return
		}
		span.RecordError(err, trace.WithStackTrace(true))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isClientError(err error) bool {
	switch contextutils.GetErrorSeverity(err) {
	case contextutils.SeverityDebug, contextutils.SeverityInfo, contextutils.SeverityWarn:
		return true
	case contextutils.SeverityError, contextutils.SeverityFatal:
		return false
	}
	return false
}
