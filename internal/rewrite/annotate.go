package rewrite

import (
	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/ir"
)

// Annotate returns a copy of decl with its call body wrapped for the
// target runtime. The native call is marked GC-safe, the context hook is
// inserted first unless the resolved options opt out, and calls returning
// a checked type get the error check as the outermost wrapper.
//
// Annotate is idempotent: an already wrapped body is unwrapped to its
// native call and rebuilt.
func Annotate(decl *ir.FuncDecl, res Resolution, opts *config.Options) *ir.FuncDecl {
	out := decl.Clone()

	native := ir.Native(decl.Body)
	if native == nil {
		native = &ir.NativeCall{Func: decl.Name}
	}
	var body ir.CallExpr = &ir.NativeCall{Func: native.Func, GCSafe: true}

	if res.Options.NeedsContext {
		body = &ir.GuardedCall{Hook: opts.ContextHook, Inner: body}
	}
	if opts.IsChecked(decl.Result.String()) {
		body = &ir.CheckedCall{Inner: body}
	}
	out.Body = body
	return out
}
