package listview

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrValidationFailed    = errors.New("validation failed")
	ErrStaleSelection      = errors.New("stale selection")
	ErrCollaboratorFailure = errors.New("collaborator failure")
	ErrNotFound            = errors.New("not found")
)

// Error carries the kind of failure together with the operation that produced it.
type Error struct {
	Kind     error
	Op       string
	Resource string
	Err      error
	// Details is an optional payload for the caller, e.g. field validation errors.
	Details any
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Resource != "" {
		msg = e.Resource + ": " + msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func denied(op, resource string, action Action) error {
	return &Error{Kind: ErrAuthorizationDenied, Op: op, Resource: resource, Err: fmt.Errorf("missing %s permission", action)}
}

func invalid(op, resource string, err error) error {
	return &Error{Kind: ErrValidationFailed, Op: op, Resource: resource, Err: err, Details: err}
}

// collaboratorFailure tags err unless it already carries one of the kinds.
func collaboratorFailure(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrAuthorizationDenied, ErrValidationFailed, ErrCollaboratorFailure, ErrNotFound} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &Error{Kind: ErrCollaboratorFailure, Op: op, Resource: resource, Err: err}
}

// Invalid builds a ValidationFailed error for collaborators outside this package.
func Invalid(op string, err error) error {
	return invalid(op, "", err)
}

// NotFound builds a not-found error for a single record.
func NotFound(resource string, id any) error {
	return &Error{Kind: ErrNotFound, Resource: resource, Err: fmt.Errorf("id %v", id)}
}
