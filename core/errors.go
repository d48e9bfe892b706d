package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned while locating and resolving objects.
var (
	// ErrObjectNumberOutOfRange is returned for object numbers at or beyond
	// the length of the cross-reference table.
	ErrObjectNumberOutOfRange = errors.New("object number out of range")

	// ErrFreeObject is returned when dereferencing a deleted object.
	ErrFreeObject = errors.New("object is free")

	// ErrObjectNotFound is returned for slots no update section defines.
	ErrObjectNotFound = errors.New("object not found in any xref section")

	// ErrNestedObjectStream is returned when an object stream is itself
	// stored inside another object stream.
	ErrNestedObjectStream = errors.New("object stream stored inside an object stream")

	// ErrGenerationMismatch is returned when a reference names a different
	// generation than the stored object.
	ErrGenerationMismatch = errors.New("generation number mismatch")

	// ErrEntryNotFound is matched by every EntryNotFoundError.
	ErrEntryNotFound = errors.New("required entry not found")

	// ErrUnfulfilledPromise is returned when a promised object has no value
	// at the time it has to be written.
	ErrUnfulfilledPromise = errors.New("promised object was never fulfilled")
)

// EntryNotFoundError reports a dictionary missing a required key.
type EntryNotFoundError struct {
	Key string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry /%s not found", e.Key)
}

// Is makes errors.Is(err, ErrEntryNotFound) hold.
func (e *EntryNotFoundError) Is(target error) bool {
	return target == ErrEntryNotFound
}

// ObjectError attaches an object number to a failure.
type ObjectError struct {
	Number int
	Err    error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("object %d: %v", e.Number, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// UnfulfilledPromiseError is the panic value raised when a promised object is
// dereferenced before it has been fulfilled. Callers that do this have a bug.
type UnfulfilledPromiseError struct {
	Number int
}

func (e UnfulfilledPromiseError) Error() string {
	return fmt.Sprintf("dereference of unfulfilled promise for object %d", e.Number)
}

// Unwrap lets the panic value be matched against ErrUnfulfilledPromise.
func (e UnfulfilledPromiseError) Unwrap() error { return ErrUnfulfilledPromise }
