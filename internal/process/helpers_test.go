package process

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/procman/internal/task"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func (l *recordingLogger) contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func newRegistry(t *testing.T, descs ...task.Descriptor) *task.Registry {
	t.Helper()
	reg := task.NewRegistry()
	for _, d := range descs {
		if _, err := reg.Register(d); err != nil {
			t.Fatalf("Register(%q) failed: %v", d.ID, err)
		}
	}
	return reg
}

func mustTask(t *testing.T, reg *task.Registry, id string) *task.Task {
	t.Helper()
	tk, err := reg.FindByID(id)
	if err != nil {
		t.Fatalf("FindByID(%q) failed: %v", id, err)
	}
	return tk
}

// devNull returns /dev/null opened for reading and writing.
func devNull(t *testing.T) *os.File {
	t.Helper()
	f, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// quietStdio keeps children from writing into the test output.
func quietStdio(t *testing.T) SupervisorOption {
	null := devNull(t)
	return WithStdio(null, null, null)
}

// runWithTimeout runs s and fails the test if it does not return in time.
func runWithTimeout(t *testing.T, ctx context.Context, s *Supervisor) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not return in time")
		return nil
	}
}
