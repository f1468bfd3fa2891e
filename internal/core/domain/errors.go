package domain

import "errors"

// Sentinel errors shared across storage backends and services. The transport
// layer maps them to HTTP status codes in one place.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMembershipExists     = errors.New("user is already a member of this organisation")
	ErrTodoNotFound         = errors.New("todo not found")

	// ErrVersionMismatch signals that a caller-supplied expected version does
	// not match the stored version token; the mutation was not applied.
	ErrVersionMismatch = errors.New("todo was modified by another user")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrForbidden          = errors.New("access forbidden")
	ErrSelfMembership     = errors.New("cannot modify your own membership")

	// ErrSchemaTooNew is returned when a persisted document was written by a
	// newer build than the running code. Downgrading is never attempted.
	ErrSchemaTooNew = errors.New("storage schema version is newer than this build supports")
)
