// Package task holds the supervisor's task descriptors and their runtime state.
//
// A Descriptor is the validated, immutable description of one managed program.
// A Task pairs a Descriptor with the mutable state the supervisor keeps while the
// program runs (process id, pipe wiring, lifecycle state).
//
// # Registry
//
// The Registry is populated once, before any process is started, and keeps its
// tasks in start order: descending Order, ties in registration order.
//
//	reg := task.NewRegistry()
//	if _, err := reg.Register(task.Descriptor{
//	    ID:      "web",
//	    Policy:  task.Respawn,
//	    Order:   10,
//	    Command: "/usr/bin/httpd -f",
//	}); err != nil {
//	    return err
//	}
//
//	reg.ForEachInStartOrder(func(t *task.Task) bool {
//	    fmt.Println(t.ID)
//	    return true
//	})
//
// # Piping
//
// A task may name one partner through PipeID. The partner (the task that does not
// name anyone) is the originator: it owns the two pipes connecting the pair. Only
// tasks with the Once policy may be piped, and a task may belong to one pair only.
//
// # Thread Safety
//
// Registry and Task are not safe for concurrent use. They are owned by the single
// supervisor loop.
package task
