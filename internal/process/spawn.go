package process

import (
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/dshills/procman/internal/task"
)

// Spawner starts the process of a single task.
type Spawner struct {
	wiring *Wiring
	log    Logger

	stdin  *os.File
	stdout *os.File
	stderr *os.File
}

// NewSpawner creates a spawner that wires piped tasks through w.
// Unpiped children inherit the supervisor's standard streams.
func NewSpawner(w *Wiring, log Logger) *Spawner {
	if log == nil {
		log = nopLogger{}
	}
	return &Spawner{
		wiring: w,
		log:    log,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Spawn starts t's command and records the new process in t.
//
// The command is split into arguments with task.SplitCommand and the program
// is looked up on PATH. Start returns only after the child has replaced its
// image, so a failed exec is reported here as a *SpawnError. On failure t is
// left not running in StateExited; the supervisor treats that like an exit and
// restarts a Respawn task after its retry delay.
func (s *Spawner) Spawn(t *task.Task) error {
	argv, err := task.SplitCommand(t.Command)
	if err != nil {
		return s.fail(t, err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = s.stdin, s.stdout, s.stderr

	if t.Piped {
		in, out, err := s.wiring.Prepare(t)
		if err != nil {
			s.log.Warn("%s: %v, starting unpiped", t.ID, err)
		} else {
			cmd.Stdin, cmd.Stdout = in, out
			// The child holds its own copies once started.
			defer s.wiring.Release(t)
		}
	}

	if err := cmd.Start(); err != nil {
		return s.fail(t, err)
	}

	pid := cmd.Process.Pid
	// Reaping belongs to the monitor loop; drop the handle without waiting.
	if err := cmd.Process.Release(); err != nil {
		s.log.Debug("%s: releasing process handle: %v", t.ID, err)
	}

	t.PID = pid
	t.State = task.StateRunning
	t.Instance = uuid.NewString()
	s.log.Info("started %s (pid %d, instance %s): %s", t.ID, pid, t.Instance, t.Command)
	return nil
}

func (s *Spawner) fail(t *task.Task, err error) error {
	t.PID = 0
	t.State = task.StateExited
	s.log.Error("failed to execute command %q of %s: %v", t.Command, t.ID, err)
	return &SpawnError{TaskID: t.ID, Err: err}
}
