// Package apperror carries coded errors from the business layer to the HTTP
// boundary, where the code decides the status and the response body.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// AppError is an error with a stable code and an HTTP status.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	TraceID    string
	Timestamp  time.Time

	cause error
	stack []uintptr
}

// Response is the JSON body written for a failed request.
type Response struct {
	Error ResponseError `json:"error"`
}

// ResponseError is the inner object of Response.
type ResponseError struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&sb, " [%s]", e.Context)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %v", e.cause)
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// WithTraceID attaches the trace id of the request that failed.
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ToResponse builds the response body.
func (e *AppError) ToResponse() Response {
	return Response{Error: ResponseError{
		Code:      e.Code,
		Message:   e.Message,
		Context:   e.Context,
		TraceID:   e.TraceID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}}
}

// ToLog flattens the error into key/value pairs for the logger, stack included.
func (e *AppError) ToLog() map[string]any {
	out := map[string]any{
		"code":   e.Code,
		"status": e.StatusCode,
	}
	if e.Context != "" {
		out["context"] = e.Context
	}
	if e.TraceID != "" {
		out["traceId"] = e.TraceID
	}
	if e.cause != nil {
		out["cause"] = e.cause.Error()
	}
	if len(e.stack) > 0 {
		out["stack"] = e.formatStack()
	}
	return out
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates an AppError for code. The message and status come from the
// code unless an option overrides them.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: statusFor(code),
		Timestamp:  time.Now(),
		stack:      captureStack(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Option customises an AppError built by New.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext names the field, path or resource the error is about.
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// NotFound is a 404 for the given resource.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusNotFound))
}

// Validation is a 400 naming the offending field.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// PaymentRequired is a 402.
func PaymentRequired(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusPaymentRequired))
}

// TooManyRequests is a 429 for the given client or path.
func TooManyRequests(context string) *AppError {
	return New(CodeRateLimitExceeded, WithContext(context))
}

// Internal is a 500 regardless of code.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// Wrap returns err unchanged when it already is an AppError, filling in an
// empty context. Anything else becomes an AppError of code around err.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return New(code, WithContext(context), WithCause(err))
}

// StatusCode returns the HTTP status err should be reported with.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetCode returns the code of err, or CodeInternalError for foreign errors.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

func statusFor(code Code) int {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "PAYMENT_"), code == CodeFacilitatorUnavailable:
		return http.StatusPaymentRequired
	case code == CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case strings.Contains(s, "NOT_FOUND"), code == CodeChainNotSupported:
		return http.StatusNotFound
	case strings.HasPrefix(s, "INVALID_"), code == CodeRequiredField:
		return http.StatusBadRequest
	case strings.Contains(s, "CONNECTION"), code == CodeServiceUnavailable, code == CodeCircuitOpen:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
