package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no config", nil, exitUsage, "no configuration file given"},
		{"too many args", []string{"a.conf", "b.conf"}, exitUsage, "expected one config file"},
		{"unknown flag", []string{"-bogus", "a.conf"}, exitUsage, "flag provided but not defined"},
		{"help", []string{"-help"}, exitOK, "Usage: procman"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("run() = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d", code, exitOK)
	}
	if !strings.HasPrefix(stdout.String(), "procman "+version) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_ConfigLoadFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{filepath.Join(t.TempDir(), "missing.conf")}, &stdout, &stderr)
	if code != exitFailure {
		t.Errorf("run() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stderr.String(), "missing.conf") {
		t.Errorf("expected the path in the diagnostic, got %q", stderr.String())
	}
}

func TestRun_InvalidFlagValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.conf")
	if err := os.WriteFile(path, []byte("aa:once:0::true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-log-format", "xml", path}, &stdout, &stderr)
	if code != exitFailure {
		t.Errorf("run() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stderr.String(), "log") {
		t.Errorf("unexpected diagnostic %q", stderr.String())
	}
}

func TestRun_Completion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.conf")
	content := "aa:once:1::true\nbb:once:0::true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-log-level", "error", path}, &stdout, &stderr)
	if code != exitOK {
		t.Errorf("run() = %d, want %d", code, exitOK)
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts, _, ok := parseFlags([]string{"-log-format", "json", "-spawn-delay", "20ms", "tasks.conf"}, &stdout, &stderr)
	if !ok {
		t.Fatalf("parseFlags failed: %s", stderr.String())
	}

	if opts.ConfigPath != "tasks.conf" {
		t.Errorf("ConfigPath = %q", opts.ConfigPath)
	}
	if got := opts.Overrides["log.format"]; got != "json" {
		t.Errorf("log.format = %v, want json", got)
	}
	if got := opts.Overrides["spawn.delay"]; got != "20ms" {
		t.Errorf("spawn.delay = %v, want 20ms", got)
	}
	if _, set := opts.Overrides["log.level"]; set {
		t.Error("unset flags must not override the environment")
	}
}
