// internal/services/errors.go
package services

import "errors"

// ErrorCode classifies a guard failure so the API boundary can map it to a
// status code without parsing messages.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeConflict     ErrorCode = "CONFLICT"
)

// DomainError is raised at the point a transition guard fails. Transitions
// never silently no-op: every violated guard surfaces one of these.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewNotFound(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func NewUnauthorized(message string) *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

func NewInvalidState(message string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: message}
}

func NewConflict(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// CodeOf extracts the domain error code, if err carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}
