package archive

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error taxonomy members from the archive's
// error handling design. The core recovers nothing silently: every
// operation either succeeds or returns an error whose Kind the caller can
// switch on to decide whether the enclosing transaction is retriable.
type Kind int

const (
	// KindBrokenClassReference means the class handle supplied to
	// ArchiveVersion could not be resolved back to itself via (module, name).
	KindBrokenClassReference Kind = iota
	// KindNotFound means GetVersion, Revert, or ContainerContents addressed
	// a nonexistent entity.
	KindNotFound
	// KindContainerNotEmpty means Shred would leave a shredded container
	// holding live items.
	KindContainerNotEmpty
	// KindInvalidInput means a name/namespace was empty where non-empty is
	// required, or a required input capability was missing.
	KindInvalidInput
	// KindReadOnlyBlob means a write was attempted on a blob read stream.
	KindReadOnlyBlob
	// KindStorageError wraps an unrecoverable error surfaced by the store.
	// It is propagated unchanged so the caller can retry the transaction.
	KindStorageError
)

func (k Kind) String() string {
	switch k {
	case KindBrokenClassReference:
		return "BrokenClassReference"
	case KindNotFound:
		return "NotFound"
	case KindContainerNotEmpty:
		return "ContainerNotEmpty"
	case KindInvalidInput:
		return "InvalidInput"
	case KindReadOnlyBlob:
		return "ReadOnlyBlob"
	case KindStorageError:
		return "StorageError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every archive operation that
// fails. Use errors.As to recover it from a wrapped error, or Cause to get
// at the kind directly.
type Error struct {
	Kind    Kind
	Message string
	// ContainerID is set only for KindContainerNotEmpty.
	ContainerID int64
	// Err is the underlying error this one wraps, if any. KindStorageError
	// sets it to the original driver error so callers can inspect the
	// concrete cause with errors.As or errors.Unwrap.
	Err error
}

func (e *Error) Error() string {
	if e.Kind == KindContainerNotEmpty {
		return fmt.Sprintf("%s: container %d", e.Kind, e.ContainerID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrBrokenClassReference reports that a class token did not resolve to the
// handle the caller supplied.
func ErrBrokenClassReference(module, name string) error {
	return newError(KindBrokenClassReference, "class (%s, %s) did not resolve to the supplied handle", module, name)
}

// ErrNotFound reports a missing entity.
func ErrNotFound(what string) error {
	return newError(KindNotFound, "%s not found", what)
}

// ErrContainerNotEmpty reports that shredding containerID would leave live
// items behind.
func ErrContainerNotEmpty(containerID int64) error {
	return &Error{Kind: KindContainerNotEmpty, ContainerID: containerID, Message: "container not empty"}
}

// ErrInvalidInput reports a malformed input capability.
func ErrInvalidInput(format string, args ...interface{}) error {
	return newError(KindInvalidInput, format, args...)
}

// ErrReadOnlyBlob reports a write attempted on a read-only blob stream.
var ErrReadOnlyBlob = newError(KindReadOnlyBlob, "blob stream is read-only")

// WrapStorageError annotates an error surfaced by the store as a
// KindStorageError, preserving a stack trace via pkg/errors so the caller
// can log it meaningfully, while keeping the original error reachable
// through Unwrap so errors.As/errors.Unwrap can recover the concrete driver
// error underneath. *Error has no Cause method, so pkg/errors' Cause stops
// at the *Error itself.
func WrapStorageError(err error, context string) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err, context)
	return &Error{Kind: KindStorageError, Message: wrapped.Error(), Err: wrapped}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
