package cheader

import (
	"errors"
	"fmt"
)

// ParseError reports a header set the C parser rejected.
type ParseError struct {
	Module  string
	Headers []string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing headers of module %s: %v", e.Module, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
