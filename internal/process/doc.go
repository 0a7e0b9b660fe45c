// Package process runs and supervises the programs described by a task registry.
//
// The Supervisor owns a task.Registry for the lifetime of the process. Run
// starts every task in start order, then turns signals into a sequential event
// loop:
//
//   - SIGCHLD drains every reapable child; Respawn tasks are started again
//   - SIGINT and SIGTERM forward the signal to every live child and end Run
//
// Run returns nil once no task has a live process, or a *ShutdownError when a
// termination signal was received.
//
//	reg := task.NewRegistry()
//	// ... register tasks ...
//	sup := process.NewSupervisor(reg, process.WithLogger(logger))
//	if err := sup.Run(ctx); err != nil {
//	    var serr *process.ShutdownError
//	    if errors.As(err, &serr) {
//	        os.Exit(1)
//	    }
//	}
//
// # Piping
//
// The two pipes of a piped pair are allocated on the originator by whichever
// member starts first. Each child receives its two ends as stdin and stdout;
// every other descriptor is close-on-exec, and the parent closes its copy of an
// end as soon as the child that uses it has started.
//
// # Reaping
//
// The Supervisor reaps with wait4(-1, WNOHANG) and never calls exec.Cmd.Wait.
// It must be the only code in the process that waits for children while Run is
// active. This package is Unix only.
//
// # Thread Safety
//
// Registry mutation, spawning, and reaping all happen on the goroutine running
// Run. Shutdown is the only method that is safe to call from other goroutines.
package process
