package errdef

import (
	"errors"
	"fmt"
)

func NewForbidden(format string, a ...any) error {
	return forbidden{fmt.Errorf(format, a...)}
}

type forbidden struct{ error }

func IsForbidden(err error) bool {
	var e forbidden
	return errors.As(err, &e)
}

// NewBadRequest creates an error representing malformed or missing input. These errors are
// surfaced to the caller verbatim.
func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

func NewDuplicated(format string, a ...any) error {
	return duplicated{fmt.Errorf(format, a...)}
}

type duplicated struct{ error }

func IsDuplicated(err error) bool {
	var e duplicated
	return errors.As(err, &e)
}

func NewUnauthorized(format string, a ...any) error {
	return unauthorized{fmt.Errorf(format, a...)}
}

type unauthorized struct{ error }

func IsUnauthorized(err error) bool {
	var e unauthorized
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a resource that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewConflict creates an error representing a conflicting state.
func NewConflict(format string, a ...any) error {
	return conflict{fmt.Errorf(format, a...)}
}

type conflict struct{ error }

// IsConflict returns true if err is an error representing a conflict and false otherwise.
func IsConflict(err error) bool {
	var e conflict
	return errors.As(err, &e)
}

// NewExpired creates an error representing a resource which existed but whose lifetime has ended.
func NewExpired(format string, a ...any) error {
	return expired{fmt.Errorf(format, a...)}
}

type expired struct{ error }

// IsExpired returns true if err is an error representing an expired resource and false otherwise.
func IsExpired(err error) bool {
	var e expired
	return errors.As(err, &e)
}

// NewAlreadyConsumed creates an error representing a single-use credential that has already been
// redeemed.
func NewAlreadyConsumed(format string, a ...any) error {
	return alreadyConsumed{fmt.Errorf(format, a...)}
}

type alreadyConsumed struct{ error }

// IsAlreadyConsumed returns true if err is an error representing an already redeemed credential
// and false otherwise.
func IsAlreadyConsumed(err error) bool {
	var e alreadyConsumed
	return errors.As(err, &e)
}

// NewUnsupportedMediaType creates an error representing a request body of an unsupported content
// type.
func NewUnsupportedMediaType(format string, a ...any) error {
	return unsupportedMediaType{fmt.Errorf(format, a...)}
}

type unsupportedMediaType struct{ error }

// IsUnsupportedMediaType returns true if err is an error representing an unsupported content type
// and false otherwise.
func IsUnsupportedMediaType(err error) bool {
	var e unsupportedMediaType
	return errors.As(err, &e)
}
