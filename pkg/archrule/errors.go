package archrule

import (
	"fmt"
	"strings"
)

// ConfigError reports a malformed rule declaration. It is returned before any
// package is scanned and is never mixed into a Result.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrConfig creates a ConfigError with a formatted message.
func ErrConfig(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// WrapConfig wraps err as a ConfigError with a formatted message.
func WrapConfig(err error, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ViolationError is raised by the low-level check engine when an architecture
// condition does not hold. Details holds one entry per offending edge or
// package.
type ViolationError struct {
	Rule    string
	Details []string
}

func (e *ViolationError) Error() string {
	if len(e.Details) == 1 {
		return e.Rule + ": " + e.Details[0]
	}
	return fmt.Sprintf("%s was violated (%d times):\n%s", e.Rule, len(e.Details), strings.Join(e.Details, "\n"))
}
