package observability

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "gymdash/internal/utils"
)

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// GinMiddlewareWithErrorHandling wraps otelgin and annotates the request span when the response is a 4xx or 5xx.
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlerFunc {
	inner := otelgin.Middleware(serviceName)
	return func(c *gin.Context) {
		inner(c)

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		appErr := firstAppError(c.Errors)
		severity := determineErrorSeverity(statusCode, appErr)

		errorMsg := "client error"
		if statusCode >= http.StatusInternalServerError {
			errorMsg = "server error"
		}
		if appErr != nil {
			errorMsg = appErr.Message
		} else if len(c.Errors) > 0 {
			errorMsg = c.Errors.Last().Error()
		}

		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
		)

		// Only server errors mark the span as failed.
		if statusCode >= http.StatusInternalServerError {
			span.RecordError(errors.New(errorMsg), trace.WithStackTrace(true))
			span.SetStatus(codes.Error, errorMsg)
			span.SetAttributes(attribute.Bool("error.server_error", true))
		}

		if userID := contextutils.GetUserIDFromContext(c.Request.Context()); userID != "" {
			span.SetAttributes(attribute.String("error.user_id", userID))
		}
		if c.Request.ContentLength > 0 {
			span.SetAttributes(attribute.Int64("error.request_size", c.Request.ContentLength))
		}
		if appErr != nil {
			span.SetAttributes(
				attribute.String("error.code", string(appErr.Code)),
				attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
			)
		}
	}
}

func firstAppError(errs []*gin.Error) *contextutils.AppError {
	for _, e := range errs {
		var appErr *contextutils.AppError
		if contextutils.AsError(e.Err, &appErr) {
			return appErr
		}
	}
	return nil
}

// determineErrorSeverity prefers the AppError severity and falls back to the status code.
func determineErrorSeverity(statusCode int, appErr *contextutils.AppError) string {
	if appErr != nil {
		return string(appErr.Severity)
	}
	switch {
	case statusCode >= http.StatusInternalServerError:
		return string(contextutils.SeverityError)
	case statusCode >= http.StatusBadRequest:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
