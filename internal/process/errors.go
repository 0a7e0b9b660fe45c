package process

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors.
var (
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("supervisor already running")

	// ErrPipeUnavailable indicates a piped task that has to start unpiped.
	ErrPipeUnavailable = errors.New("pipe unavailable")
)

// SpawnError describes a task that could not be started.
type SpawnError struct {
	// TaskID is the id of the task.
	TaskID string
	// Err is the underlying error.
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.TaskID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ShutdownError is returned by Run when a termination signal ended supervision.
type ShutdownError struct {
	// Signal is the signal that was received and forwarded.
	Signal os.Signal
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("terminated by signal %v", e.Signal)
}
