package config

import (
	"errors"
	"fmt"
)

// Errors returned by Set, Validate and Load.
var (
	ErrSettingNotFound  = errors.New("setting not found")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrValidationFailed = errors.New("validation failed")
)

// SettingError ties a rejected value to its setting. Err is
// ErrTypeMismatch when the raw string did not parse and
// ErrValidationFailed when a constraint rejected it; Rule names what was
// expected ("int", "oneof=collapse overlap").
type SettingError struct {
	Path  string
	Value any
	Rule  string
	Err   error
}

// Error reports the path, the rejected value and the rule it broke.
func (e *SettingError) Error() string {
	return fmt.Sprintf("%s = %#v: %v (%s)", e.Path, e.Value, e.Err, e.Rule)
}

// Unwrap returns ErrTypeMismatch or ErrValidationFailed.
func (e *SettingError) Unwrap() error { return e.Err }
