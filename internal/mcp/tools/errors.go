package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/threatfox/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeThreatFoxError = "THREATFOX_ERROR"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeTimeout        = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapThreatFoxError converts a client error to a coded error.
func WrapThreatFoxError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	var statusErr *client.StatusError
	var validationErr *client.ValidationError
	var netErr net.Error

	switch {
	case errors.As(err, &coded):
		return coded
	case errors.As(err, &statusErr):
		code := ErrCodeThreatFoxError
		if statusErr.StatusCode == http.StatusNotFound {
			code = ErrCodeNotFound
		}
		coded = &CodedError{
			Code:    code,
			Message: fmt.Sprintf("ThreatFox answered HTTP %d", statusErr.StatusCode),
			Cause:   err,
		}
	case errors.As(err, &validationErr):
		coded = &CodedError{
			Code:    ErrCodeInvalidInput,
			Message: "payload rejected before sending",
			Cause:   err,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{
			Code:    ErrCodeTimeout,
			Message: "request timed out",
			Cause:   err,
		}
	default:
		coded = &CodedError{
			Code:    ErrCodeThreatFoxError,
			Message: "request failed",
			Cause:   err,
		}
	}

	slog.Warn("ThreatFox API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
