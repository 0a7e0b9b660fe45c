package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unknown log format name.
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrInvalidSpawnDelay indicates a negative or malformed spawn delay.
	ErrInvalidSpawnDelay = errors.New("invalid spawn delay")
)

// SettingError describes a setting value that could not be applied.
type SettingError struct {
	// Key is the setting key (e.g. "log.level").
	Key string
	// Value is the rejected value.
	Value any
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SettingError) Error() string {
	return fmt.Sprintf("setting %s = %v: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *SettingError) Unwrap() error {
	return e.Err
}
