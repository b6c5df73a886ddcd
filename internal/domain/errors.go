package domain

import "errors"

var (
	// ErrNotFound: the addressed user, order or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated: no usable credential on the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden: credential rejected, or the caller is not a member
	// of the target order.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: duplicate username, collaborator already present, or
	// collaborator absent on removal.
	ErrConflict = errors.New("conflict")

	// ErrValidation: required request fields missing or malformed.
	ErrValidation = errors.New("validation error")

	// ErrVersionConflict: a compare-and-swap write lost against a
	// concurrent update; callers retry.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInternal: store unavailable or unexpected failure.
	ErrInternal = errors.New("internal error")
)
