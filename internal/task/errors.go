package task

import (
	"errors"
	"fmt"
)

// Errors returned by descriptor validation and registry operations.
var (
	// ErrDuplicateID indicates a task with the same id is already registered.
	ErrDuplicateID = errors.New("duplicate task id")

	// ErrNotFound indicates no task matches the lookup.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidID indicates an id that is not 2-8 lowercase alphanumerics.
	ErrInvalidID = errors.New("invalid task id")

	// ErrInvalidPolicy indicates an unknown restart policy.
	ErrInvalidPolicy = errors.New("invalid restart policy")

	// ErrInvalidOrder indicates a start order that is not a number of at most four digits.
	ErrInvalidOrder = errors.New("invalid start order")

	// ErrEmptyCommand indicates a descriptor without a command.
	ErrEmptyCommand = errors.New("empty command")

	// ErrCommandTooLong indicates a command longer than MaxCommandLen bytes.
	ErrCommandTooLong = errors.New("command too long")

	// ErrInvalidPipeID indicates a malformed pipe partner id.
	ErrInvalidPipeID = errors.New("invalid pipe id")

	// ErrUnknownPipe indicates a pipe partner that is not registered.
	ErrUnknownPipe = errors.New("unknown pipe id")

	// ErrPipeRespawn indicates a pipe involving a task with the Respawn policy.
	ErrPipeRespawn = errors.New("pipe not allowed for respawn tasks")

	// ErrAlreadyPiped indicates a pipe to a task that already belongs to a pair.
	ErrAlreadyPiped = errors.New("pipe not allowed for already piped tasks")

	// ErrSelfPipe indicates a task naming itself as pipe partner.
	ErrSelfPipe = errors.New("task cannot pipe to itself")

	// ErrNoProgram indicates a command that yields no program name.
	ErrNoProgram = errors.New("command has no program name")
)

// EntryError describes a configuration entry that was rejected.
type EntryError struct {
	// Source is the file (or "<reader>") the entry came from.
	Source string
	// Line is the line number, or the entry index for structured formats.
	Line int
	// ID is the task id, when one could be read.
	ID string
	// Err is the underlying validation error.
	Err error
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s:%d: task %q: %v", e.Source, e.Line, e.ID, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error {
	return e.Err
}
