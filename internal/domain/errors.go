package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so the transport layer can map it to a
// response status without inspecting messages.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
)

// Error is a domain error carrying a classification kind.
type Error struct {
	Kind    Kind
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return e.Message
}

// NewNotFoundError creates a not-found error for an entity reference.
func NewNotFoundError(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
	}
}

// NewForbiddenError creates an error for a caller lacking the required
// relationship to the entity.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewConflictError creates an error for an operation colliding with the
// current state of the system.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewInvalidStateError creates an error for a transition attempted from a
// state that does not permit it.
func NewInvalidStateError(current, target string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, target),
	}
}

// NewValidationError creates an error for malformed caller input.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf extracts the domain error kind from err, unwrapping as needed.
// It returns an empty kind for non-domain errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
