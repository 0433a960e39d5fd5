package compiler

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/roach88/wrapgen/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrModuleNoHeaders      = "E101" // at least one header required
	ErrModuleNoConfig       = "E102" // config path required
	ErrDuplicateHeader      = "E103" // header listed twice
	ErrDuplicateDefine      = "E104" // define listed twice
	ErrFamilyShadowsModule  = "E105" // family name equals another module's name
	ErrDuplicateModule      = "E106" // module listed twice
	ErrMissingFile          = "E107" // header or config file not found
	ErrInvalidTargetPattern = "E108" // malformed glob in targets
)

// ValidationError represents a registry validation error.
type ValidationError struct {
	Module  string `json:"module"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Module, e.Field, e.Message)
}

// ValidateModule checks a compiled module in isolation.
// Returns all errors found (does not fail-fast).
func ValidateModule(spec *ir.ModuleSpec) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Module: spec.Name, Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(spec.Headers) == 0 {
		add("headers", ErrModuleNoHeaders, "at least one header is required")
	}
	if strings.TrimSpace(spec.ConfigPath) == "" {
		add("config", ErrModuleNoConfig, "config path is required")
	}

	seen := map[string]bool{}
	for i, h := range spec.Headers {
		if seen[h] {
			add(fmt.Sprintf("headers[%d]", i), ErrDuplicateHeader, "duplicate header %q", h)
		}
		seen[h] = true
	}

	defs := map[string]bool{}
	for i, d := range spec.Defines {
		if defs[d.Name] {
			add(fmt.Sprintf("defines[%d]", i), ErrDuplicateDefine, "duplicate define %q", d.Name)
		}
		defs[d.Name] = true
	}

	for i, t := range spec.Targets {
		if strings.ContainsAny(t, "*?[") {
			if _, err := matchPattern(t); err != nil {
				add(fmt.Sprintf("targets[%d]", i), ErrInvalidTargetPattern, "malformed pattern %q", t)
			}
		}
	}
	return errs
}

// ValidateRegistry checks cross-module rules: unique names and family
// names that do not collide with a module name.
func ValidateRegistry(specs []ir.ModuleSpec) []ValidationError {
	var errs []ValidationError
	names := map[string]bool{}
	for _, s := range specs {
		if names[s.Name] {
			errs = append(errs, ValidationError{Module: s.Name, Field: "module", Code: ErrDuplicateModule, Message: "module defined twice"})
		}
		names[s.Name] = true
	}
	for _, s := range specs {
		if s.Family != "" && s.Family != s.Name && names[s.Family] {
			errs = append(errs, ValidationError{
				Module:  s.Name,
				Field:   "family",
				Code:    ErrFamilyShadowsModule,
				Message: fmt.Sprintf("family %q is also a module name", s.Family),
			})
		}
	}
	return errs
}

// ValidateFiles checks that the module's headers and config exist.
func ValidateFiles(spec *ir.ModuleSpec) []ValidationError {
	var errs []ValidationError
	check := func(field, path string) {
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, ValidationError{Module: spec.Name, Field: field, Code: ErrMissingFile, Message: err.Error()})
		}
	}
	for i, h := range spec.Headers {
		check(fmt.Sprintf("headers[%d]", i), h)
	}
	if spec.ConfigPath != "" {
		check("config", spec.ConfigPath)
	}
	return errs
}

func matchPattern(p string) (bool, error) {
	return path.Match(p, "")
}
