package chunking

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("chunking configuration error")

// ConfigurationError reports invalid chunking parameters or an unknown strategy.
// It indicates caller misconfiguration and is never retried.
type ConfigurationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(field string, value any, msg string) error {
	return &ConfigurationError{Field: field, Value: value, Message: msg}
}
