package accesskit

import (
	"errors"
	"fmt"
)

// Sentinel errors for AccessKit operations.
var (
	// ErrUnauthorized is returned when the actor lacks the required permission
	// or no authenticated actor is present.
	ErrUnauthorized = errors.New("accesskit: unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("accesskit: not found")

	// ErrConflict is returned on duplicate unique keys (role name, permission
	// triple, role assignment).
	ErrConflict = errors.New("accesskit: conflict")

	// ErrVersionMismatch is returned when an optimistic-lock update supplies a
	// stale expected version. It is a Conflict.
	ErrVersionMismatch = fmt.Errorf("%w: version mismatch", ErrConflict)

	// ErrAlreadyDeleted is returned when soft-deleting a record that is
	// already soft-deleted. It is a Conflict.
	ErrAlreadyDeleted = fmt.Errorf("%w: already deleted", ErrConflict)

	// ErrNotDeleted is returned when restoring or purging a record that is not
	// in the soft-deleted state. It is a NotFound: the record does not exist
	// in the lifecycle state the operation requires.
	ErrNotDeleted = fmt.Errorf("%w: record is not soft-deleted", ErrNotFound)

	// ErrInvalidArgument is returned on malformed input (empty names, bad
	// resource/action identifiers, malformed filters).
	ErrInvalidArgument = errors.New("accesskit: invalid argument")

	// ErrInvalidKind is returned when an entity kind is not registered.
	// It is an InvalidArgument.
	ErrInvalidKind = fmt.Errorf("%w: unknown entity kind", ErrInvalidArgument)

	// ErrNoActorID is returned when a gated operation finds no actor ID in
	// context. It is an Unauthorized.
	ErrNoActorID = fmt.Errorf("%w: no actor ID in context", ErrUnauthorized)

	// ErrDatabaseError is returned when an underlying store operation fails.
	ErrDatabaseError = errors.New("accesskit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err      error  // Underlying sentinel error
	Message  string // Additional context
	Kind     string // Entity kind involved (if applicable)
	EntityID int64  // Entity involved (if applicable)
	Resource string // Resource of the failed permission check (if applicable)
	Action   string // Action of the failed permission check (if applicable)
	UserID   int64  // User involved (if applicable)
	ActorID  int64  // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithKind adds the entity kind to the error.
func (e *Error) WithKind(kind string) *Error {
	e.Kind = kind
	return e
}

// WithEntity adds entity kind and ID to the error.
func (e *Error) WithEntity(kind string, id int64) *Error {
	e.Kind = kind
	e.EntityID = id
	return e
}

// WithGrant adds the resource/action pair of a failed check to the error.
func (e *Error) WithGrant(resource, action string) *Error {
	e.Resource = resource
	e.Action = action
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID int64) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID int64) *Error {
	e.ActorID = actorID
	return e
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict (duplicate key, stale version,
// repeated soft-delete).
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidArgument checks if an error is due to malformed input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidKind checks if an error is due to an unregistered entity kind.
func IsInvalidKind(err error) bool {
	return errors.Is(err, ErrInvalidKind)
}
