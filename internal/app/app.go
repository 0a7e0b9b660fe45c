// Package app wires procman together: settings, logging, the task registry
// loaded from the configuration file, and the supervisor that runs it.
package app

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/dshills/procman/internal/config"
	"github.com/dshills/procman/internal/process"
	"github.com/dshills/procman/internal/task"
)

// Application owns one supervision run.
type Application struct {
	opts     Options
	settings config.Settings

	log        *Logger
	registry   *task.Registry
	report     config.Report
	supervisor *process.Supervisor
	metrics    *Metrics

	// started maps a process instance to its start time. Only touched from
	// the supervisor hooks, which run on the supervisor loop.
	started map[string]*Timer

	running atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the task configuration file.
	ConfigPath string

	// Overrides are setting values given on the command line, keyed like
	// "log.level". They win over the environment.
	Overrides map[string]any

	// LogOutput receives diagnostics. Defaults to os.Stderr.
	LogOutput io.Writer

	// Stdin, Stdout and Stderr are inherited by unpiped children.
	// Nil means the supervisor's own streams.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// New loads settings and tasks and prepares the supervisor.
// An unreadable or unparseable configuration file is an error; invalid
// entries are logged and skipped.
func New(opts Options) (*Application, error) {
	if opts.ConfigPath == "" {
		return nil, ErrNoConfig
	}

	app := &Application{
		opts:     opts,
		registry: task.NewRegistry(),
		metrics:  NewMetrics(),
		started:  make(map[string]*Timer),
	}

	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes the components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Settings: defaults, environment, command line.
	settings, err := config.LoadSettings()
	if err != nil {
		return NewComponentError("settings", "load", err)
	}
	if len(app.opts.Overrides) > 0 {
		if err := settings.Apply(app.opts.Overrides); err != nil {
			return NewComponentError("settings", "apply flags", err)
		}
	}
	app.settings = settings

	// 2. Logger
	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(settings.LogLevel)
	cfg.Format = ParseLogFormat(settings.LogFormat)
	if app.opts.LogOutput != nil {
		cfg.Output = app.opts.LogOutput
	}
	app.log = NewLogger(cfg)

	// 3. Registry, populated once.
	report, err := config.LoadTasks(app.opts.ConfigPath, app.registry, app.log.WithComponent("config"))
	if err != nil {
		return NewComponentError("config", "load tasks", err)
	}
	app.report = report
	app.log.Debug("loaded %d task(s) from %s, %d skipped", report.Loaded, app.opts.ConfigPath, len(report.Skipped))
	if report.Loaded == 0 {
		app.log.Warn("no tasks to supervise in %s", app.opts.ConfigPath)
	}

	// 4. Supervisor
	supOpts := []process.SupervisorOption{
		process.WithLogger(app.log.WithComponent("supervisor")),
		process.WithSpawnDelay(settings.SpawnDelay),
		process.WithSpawnHook(app.onSpawn),
		process.WithExitHook(app.onExit),
	}
	if app.opts.Stdin != nil || app.opts.Stdout != nil || app.opts.Stderr != nil {
		supOpts = append(supOpts, process.WithStdio(
			orFile(app.opts.Stdin, os.Stdin),
			orFile(app.opts.Stdout, os.Stdout),
			orFile(app.opts.Stderr, os.Stderr),
		))
	}
	app.supervisor = process.NewSupervisor(app.registry, supOpts...)

	return nil
}

func orFile(f, def *os.File) *os.File {
	if f != nil {
		return f
	}
	return def
}

func (app *Application) onSpawn(t *task.Task) {
	app.metrics.RecordSpawn(t)
	app.started[t.Instance] = StartTimer()
}

func (app *Application) onExit(t *task.Task, e process.Exit) {
	var lifetime time.Duration
	if timer, ok := app.started[t.Instance]; ok {
		lifetime = timer.Elapsed()
		delete(app.started, t.Instance)
	}
	app.metrics.RecordExit(e, lifetime)
}

// Run supervises the tasks until they have all finished, a shutdown signal
// arrives, or ctx is cancelled. It returns nil on normal completion and a
// *process.ShutdownError on shutdown.
func (app *Application) Run(ctx context.Context) error {
	if app.running.Swap(true) {
		return ErrAlreadyRunning
	}

	err := app.supervisor.Run(ctx)

	s := app.metrics.Snapshot()
	app.log.Debug("supervised for %v: %d spawn(s), %d restart(s), %d exit(s) (%d clean, %d failed, %d signaled)",
		s.Uptime.Round(time.Millisecond), s.Spawns, s.Restarts, s.Exits, s.CleanExits(), s.FailedExits, s.SignaledExits)

	return err
}

// Shutdown asks a running application to stop as if sig had been received.
func (app *Application) Shutdown(sig os.Signal) {
	app.supervisor.Shutdown(sig)
}

// Registry returns the loaded task registry.
func (app *Application) Registry() *task.Registry {
	return app.registry
}

// Report returns the configuration load report.
func (app *Application) Report() config.Report {
	return app.report
}

// Settings returns the effective settings.
func (app *Application) Settings() config.Settings {
	return app.settings
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.log
}

// Metrics returns the supervision counters.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
