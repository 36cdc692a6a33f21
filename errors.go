package rostrait

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeContractMismatch ErrorCode = "contract_mismatch"
	CodeInvalidArgument  ErrorCode = "invalid_argument"
	CodeNotFound         ErrorCode = "not_found"
	CodeCanceled         ErrorCode = "canceled"
	CodeDeadlineExceeded ErrorCode = "deadline_exceeded"
	CodeUnavailable      ErrorCode = "unavailable"
	CodeInternal         ErrorCode = "internal"
)

// Error is the standard error envelope.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithDetails returns a new Error with the provided map merged into details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
	}
}

// ContractMismatchError reports that two views of the same service disagree
// on its identity. It signals an incompatible deployment and is never
// retriable.
type ContractMismatchError struct {
	// Service is the contract being checked.
	Service TypeName
	// Field is the identity value that disagrees: "md5sum" or "type".
	Field  string
	Local  string
	Remote string
}

func (e *ContractMismatchError) Error() string {
	return fmt.Sprintf("contract mismatch for service %s: %s is %s locally but %s remotely",
		e.Service, e.Field, e.Local, e.Remote)
}

// IsContractMismatch reports whether err is or wraps a ContractMismatchError.
func IsContractMismatch(err error) bool {
	var cm *ContractMismatchError
	if errors.As(err, &cm) {
		return true
	}
	var rpcErr *Error
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeContractMismatch
}

// AsError maps Go errors to the error envelope.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	// Joined errors (errors.Join, multierr) keep every message and take the
	// code of the first.
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			first := AsError(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{
				Code:    first.Code,
				Message: strings.Join(msgs, "; "),
				Details: first.Details,
			}
		}
	}

	var cm *ContractMismatchError
	if errors.As(err, &cm) {
		return NewError(CodeContractMismatch, cm.Error()).WithDetails(map[string]any{
			"service": string(cm.Service),
			"field":   cm.Field,
			"local":   cm.Local,
			"remote":  cm.Remote,
		})
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeDeadlineExceeded, "handshake timeout")
	}

	if errors.Is(err, context.Canceled) {
		return NewError(CodeCanceled, "context canceled")
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := FormatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{
			Code:    CodeInvalidArgument,
			Message: strings.Join(messages, "; "),
			Details: details,
		}
	}

	return NewError(CodeInternal, err.Error())
}

// Known reports whether c is one of the codes defined by this package.
func (c ErrorCode) Known() bool {
	switch c {
	case CodeContractMismatch, CodeInvalidArgument, CodeNotFound,
		CodeCanceled, CodeDeadlineExceeded, CodeUnavailable, CodeInternal:
		return true
	}
	return false
}

// ExitCode maps an ErrorCode to a process exit status.
func (c ErrorCode) ExitCode() int {
	switch c {
	case "":
		return 0
	case CodeInvalidArgument:
		return 2
	case CodeContractMismatch:
		return 3
	case CodeNotFound:
		return 4
	case CodeCanceled, CodeDeadlineExceeded, CodeUnavailable:
		return 5
	default:
		return 1
	}
}

// FormatValidationError converts a validator.FieldError to a human-readable message.
func FormatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "hexadecimal":
		return "must be hexadecimal"
	case "rosname":
		return "must start with a letter and contain only letters, digits and underscores"
	case "rostype":
		return "must be a valid message type"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
