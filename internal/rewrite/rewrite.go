package rewrite

import (
	"fmt"

	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/ir"
)

// Rewrite applies type overrides and call annotation to every active,
// non-variadic function of g. The first ConfigError aborts the pass;
// nodes already rewritten at that point keep their new expression.
func Rewrite(g *ir.Graph, opts *config.Options) (Stats, []Diagnostic, error) {
	var (
		stats Stats
		diags []Diagnostic
	)

	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		if !n.IsFunction() || n.Inert() {
			continue
		}
		decl, ok := n.Expr.(*ir.FuncDecl)
		if !ok {
			continue
		}
		stats.Functions++

		res := Resolve(opts, decl.Name)
		if res.Template {
			diags = append(diags, Diagnostic{
				Kind:   DiagTemplateMatched,
				Symbol: decl.Name,
				Detail: fmt.Sprintf("%s (T=%s, S=%s)", res.Key, res.Code.T, res.Code.S),
			})
		}

		overridden, odiags, err := ApplyOverrides(decl, res)
		if err != nil {
			return stats, diags, err
		}
		if len(odiags) > 0 {
			stats.Overridden++
			diags = append(diags, odiags...)
		}

		annotated := Annotate(overridden, res, opts)
		if _, guarded := ir.Guard(annotated.Body); guarded {
			stats.Guarded++
		}
		if ir.IsChecked(annotated.Body) {
			stats.Checked++
		}
		g.Replace(i, annotated)
	}
	return stats, diags, nil
}

// Run executes the whole pass pipeline on g: prune, target filter, rewrite.
func Run(g *ir.Graph, opts *config.Options, targets []string) (Stats, []Diagnostic, error) {
	var diags []Diagnostic

	pruned := Prune(g, opts.TransparentWrappers)
	diags = append(diags, pruned...)

	skipped := g.Count(ir.StateSkip)
	diags = append(diags, Filter(g, targets)...)
	filtered := g.Count(ir.StateSkip) - skipped

	stats, rdiags, err := Rewrite(g, opts)
	diags = append(diags, rdiags...)
	stats.Shadowed = Count(pruned, DiagMacroShadowed)
	stats.Aliases = Count(pruned, DiagAliasRemoved)
	stats.Filtered = filtered
	return stats, diags, err
}
