package config

import (
	"time"

	"github.com/dshills/procman/internal/config/loader"
)

// EnvPrefix is the prefix of every environment variable procman reads.
const EnvPrefix = "PROCMAN_"

// Settings holds the supervisor's own settings.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string
	// SpawnDelay is an optional pause between consecutive initial spawns.
	SpawnDelay time.Duration
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:   "info",
		LogFormat:  "text",
		SpawnDelay: 0,
	}
}

// LoadSettings returns the defaults overridden by PROCMAN_* environment variables.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()

	env, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return s, err
	}
	if err := s.Apply(env); err != nil {
		return s, err
	}
	return s, nil
}

// Apply overrides s with the values in m, keyed like "log.level".
// Unknown keys are ignored.
func (s *Settings) Apply(m map[string]any) error {
	for key, val := range m {
		switch key {
		case "log.level":
			str, ok := val.(string)
			if !ok {
				return &SettingError{Key: key, Value: val, Err: ErrInvalidLogLevel}
			}
			s.LogLevel = str
		case "log.format":
			str, ok := val.(string)
			if !ok {
				return &SettingError{Key: key, Value: val, Err: ErrInvalidLogFormat}
			}
			s.LogFormat = str
		case "spawn.delay":
			d, err := toDuration(val)
			if err != nil {
				return &SettingError{Key: key, Value: val, Err: err}
			}
			s.SpawnDelay = d
		}
	}
	return s.Validate()
}

// Validate checks that every setting has an allowed value.
func (s *Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &SettingError{Key: "log.level", Value: s.LogLevel, Err: ErrInvalidLogLevel}
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return &SettingError{Key: "log.format", Value: s.LogFormat, Err: ErrInvalidLogFormat}
	}
	if s.SpawnDelay < 0 {
		return &SettingError{Key: "spawn.delay", Value: s.SpawnDelay, Err: ErrInvalidSpawnDelay}
	}
	return nil
}

// toDuration accepts a duration or a whole number of milliseconds.
func toDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case string:
		pd, err := time.ParseDuration(d)
		if err != nil {
			return 0, ErrInvalidSpawnDelay
		}
		return pd, nil
	default:
		return 0, ErrInvalidSpawnDelay
	}
}
