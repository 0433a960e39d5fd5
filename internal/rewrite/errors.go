package rewrite

import (
	"errors"
	"fmt"
)

// ConfigError reports a function option that cannot be applied.
// It is fatal for the module being generated.
type ConfigError struct {
	Function string
	Index    int    // argument index, -1 when not index related
	Expr     string // offending type expression, if any
	NumArgs  int
	Message  string
	Err      error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Function, e.Message)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: argument %d: %s", e.Function, e.Index, e.Message)
	}
	if e.Expr != "" {
		msg += fmt.Sprintf(" (%q)", e.Expr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
