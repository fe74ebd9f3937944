package vm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by all configuration errors.
	ErrInvalidConfig = errors.New("invalid memory configuration")

	// ErrAddressOutOfRange is returned when a virtual address is beyond the
	// virtual address space.
	ErrAddressOutOfRange = errors.New("virtual address out of range")

	// ErrProcessTerminated is returned when a terminated process accesses
	// memory.
	ErrProcessTerminated = errors.New("process is terminated")

	// ErrNotBlocked is returned when resolving a fault of a process that is
	// not waiting on one.
	ErrNotBlocked = errors.New("process is not blocked on a page fault")

	// ErrPageTableRegionFull is returned when the page table of a process
	// does not fit in the reserved page table frames.
	ErrPageTableRegionFull = errors.New(
		"reserved region cannot hold the page table of the process")

	// ErrDuplicatePID is returned when two different processes claim the same
	// PID.
	ErrDuplicatePID = errors.New("another process is attached with the same PID")

	// ErrInvariantViolation is wrapped by every InvariantError.
	ErrInvariantViolation = errors.New("memory manager invariant violated")
)

// An InvariantError reports a corrupted memory manager state. It is not
// recoverable and the simulation should halt when it sees one.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s",
		ErrInvariantViolation.Error(), e.Invariant, e.Detail)
}

// Unwrap allows errors.Is(err, ErrInvariantViolation).
func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// NewInvariantError creates an InvariantError with a formatted detail.
func NewInvariantError(
	invariant string,
	format string,
	args ...any,
) *InvariantError {
	return &InvariantError{
		Invariant: invariant,
		Detail:    fmt.Sprintf(format, args...),
	}
}
