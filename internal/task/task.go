package task

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Limits on descriptor fields.
const (
	// MinIDLen is the minimum task id length.
	MinIDLen = 2
	// MaxIDLen is the maximum task id length.
	MaxIDLen = 8
	// MaxCommandLen is the maximum command length in bytes.
	MaxCommandLen = 255
	// MaxOrder is the largest start order; -MaxOrder is the smallest.
	MaxOrder = 9999
)

// Policy decides what happens when a task's process exits.
type Policy int

const (
	// Once runs the task at most one time.
	Once Policy = iota
	// Respawn relaunches the task every time it exits, until shutdown.
	Respawn
)

// String returns the configuration keyword for the policy.
func (p Policy) String() string {
	switch p {
	case Once:
		return "once"
	case Respawn:
		return "respawn"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePolicy parses a restart policy keyword. Case is ignored.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "once":
		return Once, nil
	case "respawn":
		return Respawn, nil
	default:
		return Once, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// ParseOrder parses a start order field.
//
// An empty field yields 0, the lowest default priority. Anything else must be an
// integer of at most four digits; out-of-range values are an error rather than
// being silently replaced.
func ParseOrder(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
	}
	if n > MaxOrder || n < -MaxOrder {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidOrder, n)
	}
	return n, nil
}

// ValidID reports whether s is a well-formed task id.
func ValidID(s string) bool {
	if len(s) < MinIDLen || len(s) > MaxIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Descriptor is the immutable description of one managed program.
type Descriptor struct {
	// ID uniquely identifies the task.
	ID string
	// PipeID optionally names the task this one is piped to.
	PipeID string
	// Policy is the restart policy.
	Policy Policy
	// Order is the start priority; higher values start first.
	Order int
	// Command is the program path followed by space-separated arguments.
	Command string
}

// Validate checks the fields that do not depend on other tasks.
func (d Descriptor) Validate() error {
	if !ValidID(d.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, d.ID)
	}
	if d.Policy != Once && d.Policy != Respawn {
		return fmt.Errorf("%w: %d", ErrInvalidPolicy, int(d.Policy))
	}
	if d.Order > MaxOrder || d.Order < -MaxOrder {
		return fmt.Errorf("%w: %d out of range", ErrInvalidOrder, d.Order)
	}
	if d.PipeID != "" {
		if !ValidID(d.PipeID) {
			return fmt.Errorf("%w: %q", ErrInvalidPipeID, d.PipeID)
		}
		if d.PipeID == d.ID {
			return ErrSelfPipe
		}
	}
	if strings.TrimSpace(d.Command) == "" {
		return ErrEmptyCommand
	}
	if len(d.Command) > MaxCommandLen {
		return fmt.Errorf("%w: %d bytes", ErrCommandTooLong, len(d.Command))
	}
	return nil
}

// State is the lifecycle state of a task.
type State int

const (
	// StateNotStarted indicates the task has never been spawned.
	StateNotStarted State = iota
	// StateRunning indicates the task's process is alive.
	StateRunning
	// StateRespawning indicates the task exited and is being relaunched.
	StateRespawning
	// StateExited indicates the task is finished for the rest of the run.
	StateExited
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateRespawning:
		return "respawning"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Pipes holds the two pipes connecting a piped pair.
//
// Forward carries the originator's output to its partner's input; Backward
// carries the partner's output to the originator's input. An end is nil once
// it has been closed.
type Pipes struct {
	ForwardRead   *os.File
	ForwardWrite  *os.File
	BackwardRead  *os.File
	BackwardWrite *os.File
}

// Close closes every end that is still open.
func (p *Pipes) Close() error {
	var first error
	for _, f := range []**os.File{&p.ForwardRead, &p.ForwardWrite, &p.BackwardRead, &p.BackwardWrite} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && first == nil {
			first = err
		}
		*f = nil
	}
	return first
}

// Task is a descriptor plus the runtime state the supervisor keeps for it.
type Task struct {
	Descriptor

	// PID is the process id of the running instance, 0 when not running.
	PID int

	// Piped is set on both members of a piped pair.
	Piped bool

	// Pipes is allocated on the originator of a pair only.
	Pipes *Pipes

	// State is the lifecycle state.
	State State

	// Instance identifies the current process incarnation in logs.
	Instance string

	// Restarts counts respawns.
	Restarts int
}

// IsOriginator reports whether t owns the pipes of its pair.
func (t *Task) IsOriginator() bool {
	return t.Piped && t.PipeID == ""
}

// Running reports whether t has a live process.
func (t *Task) Running() bool {
	return t.PID > 0
}
