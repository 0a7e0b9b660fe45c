package config

import (
	"fmt"

	"github.com/dshills/procman/internal/config/loader"
	"github.com/dshills/procman/internal/task"
)

// Logger receives diagnostics for skipped entries.
type Logger interface {
	Warn(msg string, args ...any)
}

// Report summarizes a task configuration load.
type Report struct {
	// Loaded is the number of registered tasks.
	Loaded int
	// Skipped lists every rejected entry in file order.
	Skipped []*task.EntryError
}

// LoadTasks reads the task file at path and registers its entries into reg.
//
// Only an unreadable or unparseable file is an error. Each invalid entry is
// logged, recorded in the report, and skipped.
func LoadTasks(path string, reg *task.Registry, log Logger) (Report, error) {
	return LoadTasksFS(loader.DefaultFS(), path, reg, log)
}

// LoadTasksFS is LoadTasks on a custom file system.
func LoadTasksFS(fsys loader.FileSystem, path string, reg *task.Registry, log Logger) (Report, error) {
	entries, err := loader.ForPath(fsys, path).LoadFrom(path)
	if err != nil {
		return Report{}, err
	}
	return Register(path, entries, reg, log), nil
}

// Register converts entries into descriptors and registers them in order.
func Register(source string, entries []loader.Entry, reg *task.Registry, log Logger) Report {
	var report Report

	for _, e := range entries {
		d, err := descriptor(e)
		if err == nil {
			_, err = reg.Register(d)
		}
		if err != nil {
			entryErr := &task.EntryError{Source: source, Line: e.Line, ID: e.ID, Err: err}
			report.Skipped = append(report.Skipped, entryErr)
			if log != nil {
				log.Warn("%v, ignored", entryErr)
			}
			continue
		}
		report.Loaded++
	}

	return report
}

// descriptor parses the textual fields of e.
func descriptor(e loader.Entry) (task.Descriptor, error) {
	if e.Err != nil {
		return task.Descriptor{}, e.Err
	}

	if !task.ValidID(e.ID) {
		return task.Descriptor{}, fmt.Errorf("%w: %q", task.ErrInvalidID, e.ID)
	}
	policy, err := task.ParsePolicy(e.Action)
	if err != nil {
		return task.Descriptor{}, err
	}
	order, err := task.ParseOrder(e.Order)
	if err != nil {
		return task.Descriptor{}, err
	}

	return task.Descriptor{
		ID:      e.ID,
		PipeID:  e.PipeID,
		Policy:  policy,
		Order:   order,
		Command: e.Command,
	}, nil
}
