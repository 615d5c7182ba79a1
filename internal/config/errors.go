package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration decoding.
var (
	// ErrTypeMismatch indicates a value has the wrong type for its setting.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidValue indicates a value is out of range or not an allowed choice.
	ErrInvalidValue = errors.New("invalid value")
)

// SettingError reports a problem with one setting.
type SettingError struct {
	// Path is the dotted setting path, e.g. "script.timeout".
	Path  string
	Value any
	Err   error
}

// Error implements the error interface.
func (e *SettingError) Error() string {
	return fmt.Sprintf("setting %s = %v: %v", e.Path, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *SettingError) Unwrap() error {
	return e.Err
}
