package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOutbound indicates a decoded response is being sent.
	ErrNotOutbound = errors.New("command is a response, not a request")
)

// UnknownFrameTypeError indicates no decoder is registered for the tag.
type UnknownFrameTypeError struct {
	Type FrameType
}

// Error implements error.
func (e *UnknownFrameTypeError) Error() string {
	return fmt.Sprintf("unknown frame type: %q", string(e.Type))
}

// UnknownCommandError indicates a command name outside the enumeration.
type UnknownCommandError struct {
	Name string
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Name)
}

// RegistrationConflictError indicates a key is registered twice.
type RegistrationConflictError struct {
	Registry string
	Key      string
}

// Error implements error.
func (e *RegistrationConflictError) Error() string {
	return fmt.Sprintf("%s registry already has an entry for %q", e.Registry, e.Key)
}

// MissingFieldError indicates a required field map key is absent.
type MissingFieldError struct {
	Field string
}

// Error implements error.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// InvalidFieldError indicates a field map value can't be decoded.
type InvalidFieldError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements error.
func (e *InvalidFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying error.
func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}

// TruncatedError indicates a binary record ended before a field.
type TruncatedError struct {
	Field string
	Need  int
	Have  int
}

// Error implements error.
func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated at %s: need %d bytes, have %d", e.Field, e.Need, e.Have)
}

// ParameterError indicates a command parameter out of its domain.
type ParameterError struct {
	Command CommandName
	Reason  string
}

// Error implements error.
func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func parameterErrorf(name CommandName, format string, args ...interface{}) *ParameterError {
	return &ParameterError{Command: name, Reason: fmt.Sprintf(format, args...)}
}

// StatusError is a response carrying a non-OK status.
type StatusError struct {
	Command CommandName
	ID      uint32
	Status  Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("command %s #%x failed: %s", e.Command, e.ID, e.Status)
}
