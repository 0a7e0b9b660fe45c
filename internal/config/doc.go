// Package config loads procman's settings and its task configuration.
//
// Settings are layered with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Command Line Flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Environment Variables   │  ← PROCMAN_LOG_LEVEL, ...
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Flags are applied by the caller after LoadSettings returns.
//
// # Task Configuration
//
// LoadTasks reads a task file with the loader sub-package and registers every
// valid entry. Invalid entries are reported to the logger and skipped:
//
//	reg := task.NewRegistry()
//	report, err := config.LoadTasks("tasks.conf", reg, logger)
//	if err != nil {
//	    return err // file unreadable or unparseable
//	}
//	fmt.Printf("%d tasks, %d skipped\n", report.Loaded, len(report.Skipped))
//
// # Sub-packages
//
//   - loader: task file formats (line, TOML, JSON) and environment variables
package config
