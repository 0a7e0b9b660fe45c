package app

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"DEBUG":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"ERROR":   LogLevelError,
		"verbose": LogLevelInfo,
		"":        LogLevelInfo,
	}

	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseLogFormat(t *testing.T) {
	tests := map[string]LogFormat{
		"json": LogFormatJSON,
		"JSON": LogFormatJSON,
		"text": LogFormatText,
		"":     LogFormatText,
		"xml":  LogFormatText,
	}

	for in, want := range tests {
		if got := ParseLogFormat(in); got != want {
			t.Errorf("ParseLogFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_DefaultOutput(t *testing.T) {
	logger := NewLogger(LoggerConfig{})
	if logger.output != os.Stderr {
		t.Error("expected output to default to stderr")
	}
}

func TestLogger_TextLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelDebug,
		Output: &buf,
		Prefix: "procman",
	})

	logger.Debug("starting %s", "web")
	logger.Info("started %s (pid %d)", "web", 4242)
	logger.Warn("unknown pid %d", 7)
	logger.Error("exec failed")

	output := buf.String()
	for _, want := range []string{
		"[DEBUG] procman: starting web",
		"[INFO] procman: started web (pid 4242)",
		"[WARN] procman: unknown pid 7",
		"[ERROR] procman: exec failed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("expected no color codes when output is not a terminal")
	}
	if n := strings.Count(output, "\n"); n != 4 {
		t.Errorf("expected 4 lines, got %d", n)
	}
}

func TestLogger_NoArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf})

	logger.Info("100% done")

	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("message without args must not be formatted, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelWarn,
		Output: &buf,
	})

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	output := buf.String()
	if strings.Contains(output, "[DEBUG]") || strings.Contains(output, "[INFO]") {
		t.Errorf("expected debug and info to be filtered, got:\n%s", output)
	}
	if !strings.Contains(output, "[WARN]") || !strings.Contains(output, "[ERROR]") {
		t.Errorf("expected warn and error, got:\n%s", output)
	}

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("expected debug output after SetLevel")
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LoggerConfig{Output: &buf})

	logger := base.WithComponent("supervisor").WithFields(map[string]any{
		"task": "web",
		"pid":  12,
	})
	logger.Info("exited")

	output := buf.String()
	if !strings.Contains(output, "{component=supervisor, pid=12, task=web}") {
		t.Errorf("expected sorted fields, got: %s", output)
	}

	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "component=") {
		t.Error("WithField must not modify the parent logger")
	}
}

func TestLogger_JSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
		Output: &buf,
		Prefix: "procman",
	}).WithFields(map[string]any{
		"task":    "db",
		"pid":     99,
		"err":     errors.New("boom"),
		"a.b":     "dotted",
		"running": true,
	})

	logger.Warn("task %s exited", "db")

	line := strings.TrimSpace(buf.String())
	if !gjson.Valid(line) {
		t.Fatalf("expected valid JSON, got: %s", line)
	}

	checks := map[string]string{
		"level":   "WARN",
		"logger":  "procman",
		"msg":     "task db exited",
		"task":    "db",
		"pid":     "99",
		"err":     "boom",
		`a\.b`:    "dotted",
		"running": "true",
	}
	for path, want := range checks {
		if got := gjson.Get(line, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if !gjson.Get(line, "time").Exists() {
		t.Error("expected time field")
	}
}

func TestLogger_SetFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf})

	logger.SetFormat(LogFormatJSON)
	logger.Info("hello")

	if got := gjson.Get(buf.String(), "msg").String(); got != "hello" {
		t.Errorf("msg = %q, want %q", got, "hello")
	}
}

func TestLogger_SetOutput(t *testing.T) {
	var first, second bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &first})

	logger.Info("one")
	logger.SetOutput(&second)
	logger.Info("two")

	if !strings.Contains(first.String(), "one") || strings.Contains(first.String(), "two") {
		t.Errorf("unexpected first output: %s", first.String())
	}
	if !strings.Contains(second.String(), "two") {
		t.Errorf("unexpected second output: %s", second.String())
	}
}

func TestLogger_DisableEnable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf})

	logger.Disable()
	logger.Error("hidden")
	if buf.Len() != 0 {
		t.Error("expected no output when disabled")
	}

	logger.Enable()
	logger.Error("shown")
	if buf.Len() == 0 {
		t.Error("expected output when enabled")
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Debug("x")
	NullLogger.Info("x")
	NullLogger.Warn("x %d", 1)
	NullLogger.WithField("k", "v").Error("x")
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig()

	if cfg.Level != LogLevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
	if cfg.Format != LogFormatText {
		t.Errorf("Format = %v, want text", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Error("expected stderr output")
	}
	if cfg.Prefix != "procman" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "procman")
	}
}
