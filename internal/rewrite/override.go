package rewrite

import (
	"fmt"

	"github.com/roach88/wrapgen/internal/ir"
)

// ApplyOverrides returns a copy of decl with the argument types of res
// applied. Template parameters T and S are replaced by the matched type
// code and, for _64 functions, 32-bit integer names by their 64-bit
// counterpart. decl itself is not modified.
//
// An index outside the declared argument range or an unparsable type
// expression is a ConfigError.
func ApplyOverrides(decl *ir.FuncDecl, res Resolution) (*ir.FuncDecl, []Diagnostic, error) {
	if len(res.Options.ArgTypes) == 0 {
		return decl, nil, nil
	}

	out := decl.Clone()
	repl := res.Substitutions()
	var diags []Diagnostic

	for _, idx := range res.Options.Indices() {
		src := res.Options.ArgTypes[idx]
		if idx < 0 || idx >= len(out.Params) {
			return nil, nil, &ConfigError{
				Function: decl.Name,
				Index:    idx,
				Expr:     src,
				NumArgs:  len(out.Params),
				Message:  fmt.Sprintf("index out of range for %d declared argument(s)", len(out.Params)),
			}
		}
		typ, err := ir.ParseType(src)
		if err != nil {
			return nil, nil, &ConfigError{
				Function: decl.Name,
				Index:    idx,
				Expr:     src,
				NumArgs:  len(out.Params),
				Message:  "malformed type expression",
				Err:      err,
			}
		}
		typ = typ.Substitute(repl)

		before := out.Params[idx].Type
		out.Params[idx].Type = typ
		diags = append(diags, Diagnostic{
			Kind:   DiagOverrideApplied,
			Symbol: decl.Name,
			Detail: fmt.Sprintf("%s: %s -> %s", out.Params[idx].Name, before, typ),
		})
	}
	return out, diags, nil
}
