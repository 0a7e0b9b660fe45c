package task

import (
	"fmt"
	"slices"
)

// Registry holds every task in start order.
type Registry struct {
	tasks []*Task
	byID  map[string]*Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Task),
	}
}

// Register validates d and inserts it into the registry.
//
// The pipe relation is checked against the tasks already registered, so a
// partner must be registered first. On success both members of a pair are
// marked piped. On failure the registry is left unchanged.
func (r *Registry) Register(d Descriptor) (*Task, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if _, exists := r.byID[d.ID]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, d.ID)
	}

	var partner *Task
	if d.PipeID != "" {
		partner = r.byID[d.PipeID]
		if partner == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPipe, d.PipeID)
		}
		if d.Policy == Respawn || partner.Policy == Respawn {
			return nil, ErrPipeRespawn
		}
		if partner.Piped {
			return nil, fmt.Errorf("%w: %q", ErrAlreadyPiped, d.PipeID)
		}
	}

	t := &Task{Descriptor: d}
	if partner != nil {
		t.Piped = true
		partner.Piped = true
	}

	// First position whose order is strictly lower keeps ties in registration order.
	i := slices.IndexFunc(r.tasks, func(o *Task) bool { return o.Order < d.Order })
	if i < 0 {
		i = len(r.tasks)
	}
	r.tasks = slices.Insert(r.tasks, i, t)
	r.byID[d.ID] = t

	return t, nil
}

// FindByID returns the task with the given id.
func (r *Registry) FindByID(id string) (*Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return t, nil
}

// FindByPID returns the task whose running process has the given pid.
func (r *Registry) FindByPID(pid int) (*Task, error) {
	if pid > 0 {
		for _, t := range r.tasks {
			if t.PID == pid {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: pid %d", ErrNotFound, pid)
}

// ForEachInStartOrder calls fn for each task in start order.
// Iteration stops early if fn returns false.
func (r *Registry) ForEachInStartOrder(fn func(*Task) bool) {
	for _, t := range r.tasks {
		if !fn(t) {
			return
		}
	}
}

// Tasks returns the tasks in start order.
// The slice is a copy; the tasks are shared.
func (r *Registry) Tasks() []*Task {
	return slices.Clone(r.tasks)
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.tasks)
}

// Live returns the number of tasks with a running process.
func (r *Registry) Live() int {
	n := 0
	for _, t := range r.tasks {
		if t.Running() {
			n++
		}
	}
	return n
}

// Originator returns the member of t's pair that owns the pipes.
// It returns false if t is not piped or its partner is missing.
func (r *Registry) Originator(t *Task) (*Task, bool) {
	if !t.Piped {
		return nil, false
	}
	if t.PipeID == "" {
		return t, true
	}
	o, ok := r.byID[t.PipeID]
	if !ok || !o.Piped {
		return nil, false
	}
	return o, true
}

// Partner returns the other member of t's pair.
func (r *Registry) Partner(t *Task) (*Task, bool) {
	if !t.Piped {
		return nil, false
	}
	if t.PipeID != "" {
		p, ok := r.byID[t.PipeID]
		return p, ok
	}
	for _, o := range r.tasks {
		if o.PipeID == t.ID {
			return o, true
		}
	}
	return nil, false
}
