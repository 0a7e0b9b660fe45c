package process

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dshills/procman/internal/task"
)

// DefaultRetryDelay is the pause before restarting a Respawn task whose
// program could not be executed.
const DefaultRetryDelay = time.Second

// Supervisor starts the tasks of a registry and keeps them running.
type Supervisor struct {
	reg     *task.Registry
	wiring  *Wiring
	spawner *Spawner
	log     Logger

	// stopping is set once shutdown begins; no respawn happens after that.
	stopping atomic.Bool

	// running guards against a second Run.
	running atomic.Bool

	// requests carries shutdown requests from Shutdown.
	requests chan os.Signal

	spawnDelay time.Duration
	retryDelay time.Duration

	// retrying holds Respawn tasks whose last start failed. They are started
	// again when retryTimer fires.
	retrying   []*task.Task
	retryTimer *time.Timer

	onSpawn func(t *task.Task)
	onExit  func(t *task.Task, e Exit)

	// Replaced in tests.
	notify     func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify func(c chan<- os.Signal)
	wait       waitFunc
	kill       func(pid int, sig unix.Signal) error
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithLogger sets the diagnostic sink.
func WithLogger(log Logger) SupervisorOption {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSpawnDelay pauses between consecutive initial spawns.
// Start order does not depend on it; each start already waits for the exec.
func WithSpawnDelay(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.spawnDelay = d
	}
}

// WithRetryDelay sets how long a Respawn task whose start failed waits before
// the next attempt. The spawn delay is used instead when it is longer.
func WithRetryDelay(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithStdio sets the streams inherited by unpiped children.
func WithStdio(stdin, stdout, stderr *os.File) SupervisorOption {
	return func(s *Supervisor) {
		s.spawner.stdin = stdin
		s.spawner.stdout = stdout
		s.spawner.stderr = stderr
	}
}

// WithSpawnHook sets a callback run on the supervisor loop after every
// successful spawn.
func WithSpawnHook(fn func(t *task.Task)) SupervisorOption {
	return func(s *Supervisor) {
		s.onSpawn = fn
	}
}

// WithExitHook sets a callback run on the supervisor loop for every reaped
// task process, before it is respawned.
func WithExitHook(fn func(t *task.Task, e Exit)) SupervisorOption {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

// NewSupervisor creates a supervisor for the tasks in reg.
// The registry must be fully populated before Run is called.
func NewSupervisor(reg *task.Registry, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		reg:        reg,
		log:        nopLogger{},
		requests:   make(chan os.Signal, 1),
		retryDelay: DefaultRetryDelay,
		notify:     signal.Notify,
		stopNotify: signal.Stop,
		wait:       unix.Wait4,
		kill:       unix.Kill,
	}
	s.wiring = NewWiring(reg, nil)
	s.spawner = NewSpawner(s.wiring, nil)

	for _, opt := range opts {
		opt(s)
	}

	s.wiring.log = s.log
	s.spawner.log = s.log
	return s
}

// Run starts every task in start order and supervises them.
//
// It returns nil when no task has a live process left or a restart pending,
// and a *ShutdownError
// when SIGINT or SIGTERM (or Shutdown) ended supervision. Cancelling ctx
// behaves like SIGTERM. On shutdown the signal is forwarded to every live child
// and Run returns without waiting for them.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.running.Swap(true) {
		return ErrAlreadyRunning
	}

	signals := make(chan os.Signal, 16)
	s.notify(signals, unix.SIGCHLD, unix.SIGINT, unix.SIGTERM)
	defer s.stopNotify(signals)
	defer s.wiring.Close()
	defer s.stopRetry()

	if err := s.startAll(ctx, signals); err != nil {
		return err
	}

	for {
		// A pending shutdown wins over the exit check.
		select {
		case sig := <-s.requests:
			return s.shutdown(sig)
		default:
		}

		if s.reg.Live() == 0 && len(s.retrying) == 0 {
			s.log.Info("all tasks finished")
			return nil
		}

		select {
		case sig := <-signals:
			if err := s.handle(sig); err != nil {
				return err
			}
		case sig := <-s.requests:
			return s.shutdown(sig)
		case <-s.retryC():
			s.retry()
		case <-ctx.Done():
			return s.shutdown(unix.SIGTERM)
		}
	}
}

// startAll spawns the tasks in start order. Events arriving during a spawn
// delay are handled as they come.
func (s *Supervisor) startAll(ctx context.Context, signals <-chan os.Signal) error {
	for i, t := range s.reg.Tasks() {
		if i > 0 && s.spawnDelay > 0 {
			if err := s.pause(ctx, signals); err != nil {
				return err
			}
		}

		select {
		case sig := <-s.requests:
			return s.shutdown(sig)
		case <-ctx.Done():
			return s.shutdown(unix.SIGTERM)
		default:
		}

		s.spawn(t)
	}
	return nil
}

func (s *Supervisor) pause(ctx context.Context, signals <-chan os.Signal) error {
	timer := time.NewTimer(s.spawnDelay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return nil
		case sig := <-signals:
			if err := s.handle(sig); err != nil {
				return err
			}
		case sig := <-s.requests:
			return s.shutdown(sig)
		case <-s.retryC():
			s.retry()
		case <-ctx.Done():
			return s.shutdown(unix.SIGTERM)
		}
	}
}

// handle processes one delivered signal.
func (s *Supervisor) handle(sig os.Signal) error {
	switch sig {
	case unix.SIGCHLD:
		s.reap()
		return nil
	case unix.SIGINT, unix.SIGTERM:
		return s.shutdown(sig)
	default:
		s.log.Warn("unexpected signal %v", sig)
		return nil
	}
}

// reap drains every terminated child and applies the restart policy.
func (s *Supervisor) reap() {
	reapAll(s.wait, s.log, s.exited)
}

func (s *Supervisor) exited(e Exit) {
	t, err := s.reg.FindByPID(e.PID)
	if err != nil {
		s.log.Warn("unknown pid %d (%v), ignored", e.PID, e)
		return
	}

	s.log.Info("%s (pid %d) terminated: %v", t.ID, e.PID, e)
	if s.onExit != nil {
		s.onExit(t, e)
	}

	t.PID = 0
	if !s.stopping.Load() && t.Policy == task.Respawn {
		t.State = task.StateRespawning
		t.Restarts++
		s.spawn(t)
		return
	}
	t.State = task.StateExited
}

func (s *Supervisor) spawn(t *task.Task) {
	if err := s.spawner.Spawn(t); err != nil {
		// A program that cannot be executed counts as an exit.
		if t.Policy == task.Respawn && !s.stopping.Load() {
			s.scheduleRetry(t)
		}
		return
	}
	if s.onSpawn != nil {
		s.onSpawn(t)
	}
}

func (s *Supervisor) scheduleRetry(t *task.Task) {
	t.State = task.StateRespawning
	s.retrying = append(s.retrying, t)

	d := max(s.retryDelay, s.spawnDelay)
	s.log.Warn("%s: restarting in %v", t.ID, d)
	if s.retryTimer == nil {
		s.retryTimer = time.NewTimer(d)
	}
}

// retryC is nil while no retry is scheduled, so selecting on it blocks.
func (s *Supervisor) retryC() <-chan time.Time {
	if s.retryTimer == nil {
		return nil
	}
	return s.retryTimer.C
}

// retry starts every task waiting since its last failed start.
func (s *Supervisor) retry() {
	pending := s.retrying
	s.retrying = nil
	s.retryTimer = nil

	for _, t := range pending {
		if s.stopping.Load() {
			t.State = task.StateExited
			continue
		}
		t.Restarts++
		s.spawn(t)
	}
}

func (s *Supervisor) stopRetry() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	for _, t := range s.retrying {
		t.State = task.StateExited
	}
	s.retrying = nil
}

// shutdown forwards sig to every live child and ends supervision.
func (s *Supervisor) shutdown(sig os.Signal) error {
	s.stopping.Store(true)
	s.log.Warn("terminated by signal %v", sig)

	usig, ok := sig.(unix.Signal)
	if !ok {
		usig = unix.SIGTERM
	}

	s.reg.ForEachInStartOrder(func(t *task.Task) bool {
		if !t.Running() {
			return true
		}
		s.log.Debug("sending %v to %s (pid %d)", usig, t.ID, t.PID)
		if err := s.kill(t.PID, usig); err != nil && !errors.Is(err, unix.ESRCH) {
			s.log.Error("kill %s (pid %d): %v", t.ID, t.PID, err)
		}
		return true
	})

	return &ShutdownError{Signal: sig}
}

// Shutdown asks a running supervisor to stop, as if sig had been received.
// Respawning stops immediately; the signal is forwarded by the Run loop.
// It is safe to call from any goroutine and does not block.
func (s *Supervisor) Shutdown(sig os.Signal) {
	s.stopping.Store(true)
	select {
	case s.requests <- sig:
	default:
	}
}

// Stopping reports whether shutdown has begun.
func (s *Supervisor) Stopping() bool {
	return s.stopping.Load()
}

// Registry returns the supervised registry.
func (s *Supervisor) Registry() *task.Registry {
	return s.reg
}
