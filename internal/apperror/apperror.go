package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the structured error envelope.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidRegion       = "INVALID_REGION"
	CodeModelUnavailable    = "MODEL_UNAVAILABLE"
	CodeIndexTimeout        = "INDEX_TIMEOUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError carries an error code alongside the message so the dispatch
// boundary can map it to the wire envelope without string matching.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the taxonomy to transport status codes.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeInvalidRegion, CodeValidation:
		return fiber.StatusBadRequest
	case CodeConcurrencyConflict:
		return fiber.StatusConflict
	case CodeModelUnavailable:
		return fiber.StatusServiceUnavailable
	case CodeIndexTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidRegion(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeInvalidRegion, Message: fmt.Sprintf(format, args...)}
}

func ModelUnavailable(message string, err error) *AppError {
	return &AppError{Code: CodeModelUnavailable, Message: message, Err: err}
}

func IndexTimeout(message string) *AppError {
	return &AppError{Code: CodeIndexTimeout, Message: message}
}

func ConcurrencyConflict(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeConcurrencyConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// As unwraps err into an *AppError if possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
