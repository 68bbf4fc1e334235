package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes wrapped inside ValidationError.
var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrUnknownOption    = errors.New("unknown option")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError is the caller's fault and is never retried (InvalidRequest).
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// SeatsUnavailableError reports a lost race: at least one requested seat is
// already occupied. Seats lists every conflicting seat number.
type SeatsUnavailableError struct {
	BusID   int64
	RouteID int64
	Seats   []string
}

func (e SeatsUnavailableError) Error() string {
	if len(e.Seats) == 0 {
		return "seats unavailable"
	}
	return "seats unavailable: " + strings.Join(e.Seats, ", ")
}

// UnauthorizedError means the verified caller identity does not own the resource.
type UnauthorizedError struct {
	Msg string
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

// StorageUnavailableError wraps transient backing-store failures. The failed
// operation was rolled back and can be retried as a whole.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func (e StorageUnavailableError) Error() string {
	if e.Op == "" {
		return "storage unavailable"
	}
	return fmt.Sprintf("storage unavailable: %s", e.Op)
}

func (e StorageUnavailableError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsSeatsUnavailable(err error) bool {
	var target SeatsUnavailableError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsStorageUnavailable(err error) bool {
	var target StorageUnavailableError
	return errors.As(err, &target)
}

func IsInvalidDateRange(err error) bool { return errors.Is(err, ErrInvalidDateRange) }

func IsUnknownOption(err error) bool { return errors.Is(err, ErrUnknownOption) }

// ConflictingSeats returns the seats named by a SeatsUnavailableError, if any.
func ConflictingSeats(err error) []string {
	var target SeatsUnavailableError
	if errors.As(err, &target) {
		return target.Seats
	}
	return nil
}
