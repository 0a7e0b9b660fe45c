package process

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Exit describes one reaped child.
type Exit struct {
	PID    int
	Status unix.WaitStatus
}

// String describes how the child ended.
func (e Exit) String() string {
	switch {
	case e.Status.Exited():
		return fmt.Sprintf("exit status %d", e.Status.ExitStatus())
	case e.Status.Signaled():
		return fmt.Sprintf("signal: %v", e.Status.Signal())
	default:
		return fmt.Sprintf("wait status %#x", uint32(e.Status))
	}
}

// Success reports whether the child exited with status 0.
func (e Exit) Success() bool {
	return e.Status.Exited() && e.Status.ExitStatus() == 0
}

// waitFunc matches unix.Wait4.
type waitFunc func(pid int, wstatus *unix.WaitStatus, options int, rusage *unix.Rusage) (int, error)

// reapAll collects every child that has already terminated, calling fn for
// each one. It never blocks. Several exits can share one SIGCHLD, so it keeps
// waiting until no terminated child is left.
func reapAll(wait waitFunc, log Logger, fn func(Exit)) int {
	n := 0
	for {
		var status unix.WaitStatus
		pid, err := wait(-1, &status, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return n
		case err != nil:
			log.Warn("wait4: %v", err)
			return n
		case pid <= 0:
			return n
		}
		n++
		fn(Exit{PID: pid, Status: status})
	}
}
