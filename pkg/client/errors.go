package client

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrClosed is returned when a closed Client is used or closed again.
var ErrClosed = errors.New("threatfox: client is closed")

// ConfigurationError indicates invalid client configuration.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("threatfox: configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("threatfox: configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// StatusError is returned when the API answers with a status other than 200.
// Body holds the raw response body; ThreatFox does not guarantee its shape.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// maxErrorBody caps the body bytes quoted by StatusError.Error.
const maxErrorBody = 200

func (e *StatusError) Error() string {
	text := strings.TrimSpace(string(e.Body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	if text == "" {
		return fmt.Sprintf("threatfox API error %d", e.StatusCode)
	}
	return fmt.Sprintf("threatfox API error %d: %s", e.StatusCode, text)
}

// DecodeError is returned when a 200 response cannot be decoded.
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("threatfox: %s: %v", e.Message, e.Cause)
	}
	return "threatfox: " + e.Message
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ValidationError is returned by local payload validation, before any request is sent.
type ValidationError struct {
	Query    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("threatfox: invalid %s payload: %s", e.Query, strings.Join(e.Problems, "; "))
}

// IsStatusError reports whether err carries a non-200 API response.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
