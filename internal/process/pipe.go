package process

import (
	"fmt"
	"os"

	"github.com/dshills/procman/internal/task"
)

// Wiring allocates and hands out the pipes of piped pairs.
type Wiring struct {
	reg *task.Registry
	log Logger
}

// NewWiring creates the pipe wiring for the tasks in reg.
func NewWiring(reg *task.Registry, log Logger) *Wiring {
	if log == nil {
		log = nopLogger{}
	}
	return &Wiring{reg: reg, log: log}
}

// Prepare returns the stdin and stdout t must be started with.
//
// The pair's pipes are allocated on the originator if this is the first member
// to start. It returns ErrPipeUnavailable when t has to start unpiped: its
// originator is missing or no longer piped, allocation failed, or the ends were
// already handed out.
func (w *Wiring) Prepare(t *task.Task) (stdin, stdout *os.File, err error) {
	orig, ok := w.reg.Originator(t)
	if !ok {
		return nil, nil, fmt.Errorf("%w: originator of %q not found", ErrPipeUnavailable, t.ID)
	}

	if orig.Pipes == nil {
		if err := w.allocate(orig); err != nil {
			return nil, nil, err
		}
	}

	p := orig.Pipes
	if t == orig {
		stdin, stdout = p.BackwardRead, p.ForwardWrite
	} else {
		stdin, stdout = p.ForwardRead, p.BackwardWrite
	}
	if stdin == nil || stdout == nil {
		return nil, nil, fmt.Errorf("%w: ends of %q already released", ErrPipeUnavailable, t.ID)
	}
	return stdin, stdout, nil
}

// allocate creates both pipes of orig's pair. On failure piping is disabled for
// the whole pair.
func (w *Wiring) allocate(orig *task.Task) error {
	fr, fw, err := os.Pipe()
	if err != nil {
		w.disable(orig)
		return fmt.Errorf("%w: %v", ErrPipeUnavailable, err)
	}
	br, bw, err := os.Pipe()
	if err != nil {
		_ = fr.Close()
		_ = fw.Close()
		w.disable(orig)
		return fmt.Errorf("%w: %v", ErrPipeUnavailable, err)
	}

	orig.Pipes = &task.Pipes{
		ForwardRead:   fr,
		ForwardWrite:  fw,
		BackwardRead:  br,
		BackwardWrite: bw,
	}
	w.log.Debug("allocated pipes for %s", orig.ID)
	return nil
}

func (w *Wiring) disable(orig *task.Task) {
	if partner, ok := w.reg.Partner(orig); ok {
		partner.Piped = false
	}
	orig.Piped = false
}

// Release closes the parent's copies of the ends used by t.
// It is called once t's child has been started (or failed to start).
func (w *Wiring) Release(t *task.Task) {
	orig, ok := w.reg.Originator(t)
	if !ok || orig.Pipes == nil {
		return
	}

	p := orig.Pipes
	var ends []**os.File
	if t == orig {
		ends = []**os.File{&p.BackwardRead, &p.ForwardWrite}
	} else {
		ends = []**os.File{&p.ForwardRead, &p.BackwardWrite}
	}
	for _, f := range ends {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil {
			w.log.Warn("closing pipe of %s: %v", t.ID, err)
		}
		*f = nil
	}
}

// Close closes every pipe end the parent still holds.
func (w *Wiring) Close() {
	w.reg.ForEachInStartOrder(func(t *task.Task) bool {
		if t.Pipes != nil {
			if err := t.Pipes.Close(); err != nil {
				w.log.Warn("closing pipes of %s: %v", t.ID, err)
			}
		}
		return true
	})
}
