// Package errdefs defines the error types shared by the registry, dispatch
// and upload layers.
package errdefs

import (
	"errors"
	"fmt"
)

// Request error codes.
const (
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeInvalidResponseData = "INVALID_RESPONSE_DATA"
	CodeCallableNotFound    = "CALLABLE_NOT_FOUND"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeUploadFailed        = "UPLOAD_FAILED"
	CodeNotHandled          = "NOT_HANDLED"
	CodeInternal            = "INTERNAL_ERROR"
)

// ConfigurationError reports an invalid registration or option. It is
// raised at bootstrap and is not expected to be recovered.
type ConfigurationError struct {
	Subject string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Subject != "" {
		msg += " [" + e.Subject + "]"
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(subject, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// RequestError is a structured error raised while processing a request.
type RequestError struct {
	Code    string
	Message string
	Details interface{}
}

func (e *RequestError) Error() string {
	return e.Code + ": " + e.Message
}

// NewRequestError creates a RequestError.
func NewRequestError(code, message string, details interface{}) *RequestError {
	return &RequestError{Code: code, Message: message, Details: details}
}

// UploadError reports a failure to validate or store uploaded files.
type UploadError struct {
	Field   string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Field != "" {
		return "upload error [" + e.Field + "]: " + e.Message
	}
	return "upload error: " + e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// AsRequestError extracts a RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsUploadError extracts an UploadError from err.
func AsUploadError(err error) (*UploadError, bool) {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
