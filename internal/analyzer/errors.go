package analyzer

import (
	"errors"
	"fmt"
)

// ErrConfig matches every *ConfigError via errors.Is.
var ErrConfig = errors.New("invalid configuration")

// ConfigError reports a configuration value rejected before any window is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Errorf builds a *ConfigError for field with a formatted reason.
func Errorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
