package handlers

import (
	"net/http"

	contextutils "gymdash/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	genericServerMessage = "Something went wrong, please try again"
	forbiddenMessage     = "not permitted"
	notFoundMessage      = "not found"
)

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	// Map HTTP status code to appropriate error code
	var errorCode contextutils.ErrorCode
	var severity contextutils.SeverityLevel

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
		severity = contextutils.SeverityWarn
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeUnauthorized
		severity = contextutils.SeverityWarn
	case http.StatusForbidden:
		errorCode = contextutils.ErrorCodeForbidden
		severity = contextutils.SeverityWarn
	case http.StatusNotFound:
		errorCode = contextutils.ErrorCodeRecordNotFound
		severity = contextutils.SeverityInfo
	case http.StatusConflict:
		errorCode = contextutils.ErrorCodeConflict
		severity = contextutils.SeverityInfo
	case http.StatusServiceUnavailable:
		errorCode = contextutils.ErrorCodeServiceUnavailable
		severity = contextutils.SeverityError
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	StandardizeAppError(c, contextutils.NewAppError(errorCode, severity, message, details))
}

// StandardizeAppError sends a structured error response using AppError.
// Server-side failures never leak their message, details or cause.
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	statusCode := mapErrorCodeToHTTPStatus(err.Code)
	c.JSON(statusCode, errorBody(statusCode, err))
}

// errorBody renders the client-facing part of err.
func errorBody(statusCode int, err *contextutils.AppError) gin.H {
	body := gin.H{
		"code":      string(err.Code),
		"retryable": contextutils.IsRetryable(err),
	}

	switch {
	case statusCode >= http.StatusInternalServerError:
		body["error"] = genericServerMessage
		return body
	case err.Code == contextutils.ErrorCodeForbidden:
		body["error"] = forbiddenMessage
		return body
	case err.Code == contextutils.ErrorCodeRecordNotFound:
		// Absent and foreign-tenant ids must look the same.
		body["error"] = notFoundMessage
		return body
	}

	body["error"] = err.Message
	// Details of a wrapped error describe the internal chain.
	if err.Details != "" && err.Cause == nil {
		body["details"] = err.Details
	}
	if err.Field != "" {
		body["field"] = err.Field
	}
	for k, v := range err.Context {
		if _, taken := body[k]; !taken {
			body[k] = v
		}
	}
	return body
}

// HandleValidationError reports a bad value for a single input field.
func HandleValidationError(c *gin.Context, field, reason string) {
	HandleAppError(c, contextutils.NewValidationError(field, reason))
}

// HandleAppError handles any error and sends the appropriate HTTP response. The
// original error is attached to the gin context so logging and tracing see it.
func HandleAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		StandardizeAppError(c, appErr)
		return
	}

	// Fallback for non-AppError types
	StandardizeHTTPError(c, http.StatusInternalServerError, genericServerMessage, "")
}

// mapErrorCodeToHTTPStatus maps AppError codes to appropriate HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	case contextutils.ErrorCodePartialFailure:
		return http.StatusCreated

	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed,
		contextutils.ErrorCodeForeignKeyViolation:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeSessionExpired,
		contextutils.ErrorCodeInvalidCredentials:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRecordExists, contextutils.ErrorCodeConflict,
		contextutils.ErrorCodeInvalidTransition:
		return http.StatusConflict

	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout

	// 5xx Server Errors
	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeExternalServiceFailed:
		return http.StatusBadGateway

	case contextutils.ErrorCodeInternalError, contextutils.ErrorCodeDatabaseQuery,
		contextutils.ErrorCodeDatabaseTransaction:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
