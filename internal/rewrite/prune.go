package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/wrapgen/internal/ir"
)

var (
	// word-initial lowercase run followed by an uppercase letter: "cu" in cuMemAlloc
	prefixPattern = regexp.MustCompile(`^([a-z]+)[A-Z]`)
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// structSizeSuffix marks helper macros that compute a struct size from a
// type and its last field; they must be invoked as macros, not called.
const structSizeSuffix = "STRUCT_SIZE"

// WordPrefix returns the leading run of lowercase letters of s that is
// immediately followed by an uppercase letter. Identifiers that start
// uppercase, are empty, or never switch to uppercase have no prefix.
func WordPrefix(s string) (string, bool) {
	m := prefixPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsIdentifier reports whether s is a plain C identifier.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// Prune removes redundant macro declarations from g.
//
// A macro whose name equals a non-variadic function's name is set to Skip.
// A macro that renames another symbol (NEW OLD, or NEW WRAPPER(OLD) for a
// transparent wrapper) is set to Empty when both names carry the same word
// prefix. Calls to *STRUCT_SIZE helpers are rewritten to macro invocations
// first. Function-like macros, macros without a body and macros whose body
// is not a simple assignment are left untouched.
func Prune(g *ir.Graph, wrappers []string) []Diagnostic {
	var diags []Diagnostic
	diags = append(diags, pruneShadowed(g)...)
	diags = append(diags, pruneAliases(g, wrappers)...)
	return diags
}

func pruneShadowed(g *ir.Graph) []Diagnostic {
	var diags []Diagnostic
	index := g.Index()
	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		if n.Kind != ir.KindMacro || n.Inert() {
			continue
		}
		for _, j := range index[n.ID] {
			if g.Node(j).Kind != ir.KindFunction {
				continue
			}
			if g.Prune(i, ir.StateSkip) {
				diags = append(diags, Diagnostic{
					Kind:   DiagMacroShadowed,
					Symbol: n.ID,
					Detail: fmt.Sprintf("macro at %s shadows function", location(n)),
				})
			}
			break
		}
	}
	return diags
}

func pruneAliases(g *ir.Graph, wrappers []string) []Diagnostic {
	var diags []Diagnostic
	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		if n.Kind != ir.KindMacro || n.Inert() {
			continue
		}
		decl, ok := n.Expr.(*ir.MacroDecl)
		if !ok || decl.FnLike || decl.Body == nil {
			continue
		}

		body := decl.Body
		if call, ok := body.(*ir.MacroCall); ok && !call.Invoke && strings.HasSuffix(call.Callee, structSizeSuffix) {
			body = &ir.MacroCall{Callee: call.Callee, Args: append([]string(nil), call.Args...), Invoke: true}
			diags = append(diags, Diagnostic{Kind: DiagStructSize, Symbol: n.ID, Detail: call.Callee})
		}

		target := ""
		switch b := body.(type) {
		case *ir.MacroIdent:
			target = b.Name
		case *ir.MacroCall:
			if !b.Invoke && isWrapper(b.Callee, wrappers) && len(b.Args) == 1 && IsIdentifier(b.Args[0]) {
				target = b.Args[0]
				body = &ir.MacroIdent{Name: target}
				diags = append(diags, Diagnostic{Kind: DiagWrapperUnwrapped, Symbol: n.ID, Detail: b.Callee})
			}
		}

		if target != "" && sameFamily(decl.Name, target) {
			g.Prune(i, ir.StateEmpty)
			diags = append(diags, Diagnostic{
				Kind:   DiagAliasRemoved,
				Symbol: n.ID,
				Detail: fmt.Sprintf("alias of %s", target),
			})
			continue
		}

		if body != decl.Body {
			g.Replace(i, &ir.MacroDecl{Name: decl.Name, Body: body, Text: decl.Text})
		}
	}
	return diags
}

// sameFamily reports whether both identifiers carry the same word prefix.
func sameFamily(lhs, rhs string) bool {
	lp, lok := WordPrefix(lhs)
	rp, rok := WordPrefix(rhs)
	return lok && rok && lp == rp
}

func isWrapper(name string, wrappers []string) bool {
	for _, w := range wrappers {
		if w == name {
			return true
		}
	}
	return false
}

func location(n ir.Node) string {
	if n.Line > 0 {
		return fmt.Sprintf("%s:%d", n.SourcePath, n.Line)
	}
	return n.SourcePath
}
