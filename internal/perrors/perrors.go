package perrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
)

type ErrCode struct {
	Code   string `json:"code"`
	Status int    `json:"status"`
}

var (
	ErrCodeInvalidRequest      ErrCode = ErrCode{"invalid_request", http.StatusBadRequest}
	ErrCodeInvalidReference            = ErrCode{"invalid_reference", http.StatusUnprocessableEntity}
	ErrCodeInternalServer              = ErrCode{"internal_server_error", http.StatusInternalServerError}
	ErrCodeNotFound                    = ErrCode{"not_found", http.StatusNotFound}
	ErrCodeConflict                    = ErrCode{"conflict", http.StatusConflict}
	ErrCodeUnauthorized                = ErrCode{"unauthorized", http.StatusUnauthorized}
	ErrCodeForbidden                   = ErrCode{"forbidden", http.StatusForbidden}
	ErrCodeTooManyRequests             = ErrCode{"too_many_requests", http.StatusTooManyRequests}
	ErrCodeServiceUnavailable          = ErrCode{"service_unavailable", http.StatusServiceUnavailable}
)

// Failure kinds shared by every service package. Services wrap these with %w so the HTTP
// boundary can map any returned error with FromError.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type Err struct {
	Message    string                   `json:"-"`
	Err        string                   `json:"error"`
	Code       ErrCode                  `json:"code"`
	Stacktrace []string                 `json:"-"`
	Args       []map[string]interface{} `json:"args"`
}

func (e Err) Error() string {
	return e.Err
}

func (e Err) HttpStatus() int {
	return e.Code.Status
}

// Retryable reports whether the caller may repeat the request unchanged.
func (e Err) Retryable() bool {
	return e.Code == ErrCodeServiceUnavailable || e.Code == ErrCodeTooManyRequests
}

func (e Err) Print(ctx context.Context) {
	args := []any{slog.Any("error", e.Error()), slog.String("code", e.Code.Code)}
	if len(e.Args) > 0 {
		for k, v := range e.Args[0] {
			args = append(args, slog.Any(k, v))
		}
	}

	// Client mistakes are expected traffic; only server side failures carry a stacktrace.
	if e.Code.Status < http.StatusInternalServerError {
		slog.InfoContext(ctx, e.Message, args...)
		return
	}
	args = append(args, slog.Any("stacktrace", e.Stacktrace))
	slog.ErrorContext(ctx, e.Message, args...)
}

func New(code ErrCode, msg string, err error, args ...map[string]interface{}) error {
	pc := make([]uintptr, 20)
	count := runtime.Callers(1, pc)
	frames := runtime.CallersFrames(pc[:count])

	var stacktrace []string
	for frame, hasMore := frames.Next(); hasMore; frame, hasMore = frames.Next() {
		stacktrace = append(stacktrace, fmt.Sprintf("%s:%d", frame.File, frame.Line))
	}

	errString := "error missing"
	if err != nil {
		errString = err.Error()
	}

	return Err{
		Code:       code,
		Message:    msg,
		Err:        errString,
		Stacktrace: stacktrace,
		Args:       args,
	}
}

func NewErrInvalidRequest(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInvalidRequest, msg, err, args...)
}

func NewErrInternalServerError(msg string, err error, args ...map[string]interface{}) error {
	return New(ErrCodeInternalServer, msg, err, args...)
}

// CodeOf returns the ErrCode matching the failure kind wrapped by err.
func CodeOf(err error) ErrCode {
	var perr Err
	switch {
	case errors.As(err, &perr):
		return perr.Code
	case errors.Is(err, ErrValidationFailed):
		return ErrCodeInvalidRequest
	case errors.Is(err, ErrInvalidReference):
		return ErrCodeInvalidReference
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrConflict):
		return ErrCodeConflict
	case errors.Is(err, ErrForbidden):
		return ErrCodeForbidden
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ErrCodeServiceUnavailable
	default:
		return ErrCodeInternalServer
	}
}

// FromError converts err into a coded Err. An err that already is an Err is returned as is.
func FromError(msg string, err error, args ...map[string]interface{}) error {
	var perr Err
	if errors.As(err, &perr) {
		return perr
	}
	return New(CodeOf(err), msg, err, args...)
}
