package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/wrapgen/internal/cheader"
	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/rewrite"
)

// Phase names the module driver step that failed.
type Phase string

const (
	// PhaseConfig: the options file could not be loaded.
	PhaseConfig Phase = "config"
	// PhaseParse: the headers could not be parsed.
	PhaseParse Phase = "parse"
	// PhaseRewrite: an override entry was rejected.
	PhaseRewrite Phase = "rewrite"
	// PhaseEmit: the binding text could not be produced.
	PhaseEmit Phase = "emit"
	// PhaseIO: the artifact could not be written.
	PhaseIO Phase = "io"
	// PhaseFormat: the formatter failed on the written artifact.
	PhaseFormat Phase = "format"
	// PhaseCancelled: the run was cancelled before the module started.
	PhaseCancelled Phase = "cancelled"
)

// ModuleError is a fatal failure of one module. It never stops the
// other modules of a run.
type ModuleError struct {
	Module string
	Phase  Phase
	Err    error
}

// Error implements the error interface.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %s: %v", e.Module, e.Phase, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err comes from a bad options file or a
// rejected override entry. Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var le *config.LoadError
	if errors.As(err, &le) {
		return true
	}
	return rewrite.IsConfigError(err)
}

// IsParseError returns true if err comes from the header parser.
func IsParseError(err error) bool {
	var me *ModuleError
	if errors.As(err, &me) && me.Phase == PhaseParse {
		return true
	}
	return cheader.IsParseError(err)
}

// PhaseOf returns the failed phase of err, or "" if err is not a
// module error.
func PhaseOf(err error) Phase {
	var me *ModuleError
	if errors.As(err, &me) {
		return me.Phase
	}
	return ""
}
