// Package main is the entry point for the procman process supervisor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dshills/procman/internal/app"
	"github.com/dshills/procman/internal/process"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitShutdown = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code, ok := parseFlags(args, stdout, stderr)
	if !ok {
		return code
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "procman: %v\n", err)
		return exitFailure
	}

	err = application.Run(context.Background())

	var shutdownErr *process.ShutdownError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &shutdownErr):
		return exitShutdown
	default:
		fmt.Fprintf(stderr, "procman: %v\n", err)
		return exitFailure
	}
}

// parseFlags parses the command line. When ok is false the program must exit
// with code.
func parseFlags(args []string, stdout, stderr io.Writer) (opts app.Options, code int, ok bool) {
	var (
		showVersion bool
		showHelp    bool
		logLevel    string
		logFormat   string
		spawnDelay  string
	)

	fs := flag.NewFlagSet("procman", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	fs.StringVar(&spawnDelay, "spawn-delay", "0s", "Pause between initial spawns (e.g. 100ms)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "procman - start, pipe, respawn and stop a set of programs\n\n")
		fmt.Fprintf(stderr, "Usage: procman [options] <config-file>\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nConfig line format:\n")
		fmt.Fprintf(stderr, "  id:action:order:pipe-id:command\n")
		fmt.Fprintf(stderr, "  action is once or respawn; higher order starts first\n")
		fmt.Fprintf(stderr, "\nFiles ending in .toml or .json are read in those formats.\n")
		fmt.Fprintf(stderr, "PROCMAN_LOG_LEVEL, PROCMAN_LOG_FORMAT and PROCMAN_SPAWN_DELAY set defaults.\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, exitOK, false
		}
		return opts, exitUsage, false
	}

	if showHelp {
		fs.Usage()
		return opts, exitOK, false
	}

	if showVersion {
		fmt.Fprintf(stdout, "procman %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, exitOK, false
	}

	if fs.NArg() != 1 {
		if fs.NArg() == 0 {
			fmt.Fprintf(stderr, "procman: %v\n\n", app.ErrNoConfig)
		} else {
			fmt.Fprintf(stderr, "procman: expected one config file, got %d arguments\n\n", fs.NArg())
		}
		fs.Usage()
		return opts, exitUsage, false
	}
	opts.ConfigPath = fs.Arg(0)

	// Only explicitly set flags override the environment.
	fs.Visit(func(f *flag.Flag) {
		var key string
		switch f.Name {
		case "log-level":
			key = "log.level"
		case "log-format":
			key = "log.format"
		case "spawn-delay":
			key = "spawn.delay"
		default:
			return
		}
		if opts.Overrides == nil {
			opts.Overrides = make(map[string]any)
		}
		opts.Overrides[key] = f.Value.String()
	})

	return opts, exitOK, true
}
