// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-ingest/internal/domain"
	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
)

// ErrorResponse is the error envelope of every failed request.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is machine readable, e.g. "SCHEMA_MISMATCH".
	Code    string `json:"code"`
	Message string `json:"message"`

	// Details carries per-field or per-path messages.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeConflict          = "CONFLICT"
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeBadRequest        = "BAD_REQUEST"
	ErrorCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrorCodeSchemaMismatch    = "SCHEMA_MISMATCH"
	ErrorCodeUnavailable       = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout           = "TIMEOUT"
	ErrorCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrorCodeTooLarge          = "PAYLOAD_TOO_LARGE"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	ErrorCodeNotFound:          http.StatusNotFound,
	ErrorCodeConflict:          http.StatusConflict,
	ErrorCodeValidation:        http.StatusBadRequest,
	ErrorCodeBadRequest:        http.StatusBadRequest,
	ErrorCodeUnsupportedFormat: http.StatusUnsupportedMediaType,
	ErrorCodeSchemaMismatch:    http.StatusUnprocessableEntity,
	ErrorCodeUnavailable:       http.StatusServiceUnavailable,
	ErrorCodeTimeout:           http.StatusGatewayTimeout,
	ErrorCodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	ErrorCodeTooLarge:          http.StatusRequestEntityTooLarge,
}

// NewErrorResponse creates an error response with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails creates an error response with details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID sets the trace ID and returns the response.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps an error code to its HTTP status.
// Unknown codes map to 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// CodeFromError classifies err. Schema mismatch is checked first because a
// rejected batch may also carry unavailable sources.
func CodeFromError(err error) string {
	var maxBytes *http.MaxBytesError

	switch {
	case domain.IsValidation(err):
		return ErrorCodeValidation
	case domain.IsSchemaMismatch(err):
		return ErrorCodeSchemaMismatch
	case domain.IsUnsupportedFormat(err):
		return ErrorCodeUnsupportedFormat
	case domain.IsNotFound(err):
		return ErrorCodeNotFound
	case domain.IsUnavailable(err), domain.IsSourceUnavailable(err):
		return ErrorCodeUnavailable
	case errors.Is(err, ErrStaleCursor):
		return ErrorCodeConflict
	case errors.As(err, &maxBytes):
		return ErrorCodeTooLarge
	case errors.Is(err, ErrInvalidCursor), errors.Is(err, ErrBinding):
		return ErrorCodeBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout
	default:
		return ErrorCodeInternal
	}
}

// GetTraceID returns the active trace ID, or "" outside a sampled span.
func GetTraceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// HandleError writes the error envelope for err. Internal errors are logged
// with their cause and answered with a generic message.
func HandleError(c *gin.Context, err error) {
	c.JSON(errorResponse(c, err))
}

// AbortWithError is HandleError for middleware: it also stops the chain.
func AbortWithError(c *gin.Context, err error) {
	status, resp := errorResponse(c, err)
	c.AbortWithStatusJSON(status, resp)
}

// RespondWithCode writes an error envelope for an adapter-level failure.
func RespondWithCode(c *gin.Context, code, message string) {
	c.JSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithValidationErrors writes a 400 with per-field messages.
func RespondWithValidationErrors(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, NewErrorResponseWithDetails(
		ErrorCodeValidation, "request validation failed", fields,
	).WithTraceID(GetTraceID(c)))
}

func errorResponse(c *gin.Context, err error) (int, *ErrorResponse) {
	code := CodeFromError(err)
	traceID := GetTraceID(c)

	if code == ErrorCodeInternal {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("trace_id", traceID),
		)

		return http.StatusInternalServerError,
			NewErrorResponse(code, "an internal error occurred").WithTraceID(traceID)
	}

	resp := NewErrorResponse(code, err.Error()).WithTraceID(traceID)

	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		resp.Error.Details = map[string]string{verr.Field: verr.Message}
	}

	return HTTPStatusFromCode(code), resp
}
