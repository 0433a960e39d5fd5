package config

import (
	"fmt"
	"sort"

	"github.com/roach88/wrapgen/internal/ir"
)

// Validate checks every configured type expression without needing the
// declaration graph. Index bounds can only be checked against parsed
// headers and are left to the rewriting pass.
// Returns all problems found (does not fail-fast).
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, validateTable("api", o.Functions)...)
	errs = append(errs, validateTable("api", o.Templates)...)
	if o.ContextHook == "" {
		errs = append(errs, &LoadError{Path: o.Path, Key: "general.context_hook", Message: "must not be empty"})
	}
	for i := range errs {
		if le, ok := errs[i].(*LoadError); ok && le.Path == "" {
			le.Path = o.Path
		}
	}
	return errs
}

func validateTable(section string, table map[string]FunctionOptions) []error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		fn := table[name]
		for _, idx := range fn.Indices() {
			expr := fn.ArgTypes[idx]
			if _, err := ir.ParseType(expr); err != nil {
				errs = append(errs, &LoadError{
					Key:     fmt.Sprintf("%s.%s.argtypes.%d", section, name, idx),
					Message: "invalid type expression",
					Err:     err,
				})
			}
		}
	}
	return errs
}
