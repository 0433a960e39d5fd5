package rewrite

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/roach88/wrapgen/internal/ir"
)

// MatchTarget reports whether sourcePath matches at least one filter.
// Filters containing a glob metacharacter match the full path or the base
// name; other filters are substring tests. No filters match everything.
func MatchTarget(sourcePath string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	p := filepath.ToSlash(sourcePath)
	for _, f := range filters {
		if strings.ContainsAny(f, "*?[") {
			if ok, _ := path.Match(f, p); ok {
				return true
			}
			if ok, _ := path.Match(f, path.Base(p)); ok {
				return true
			}
			continue
		}
		if strings.Contains(p, f) {
			return true
		}
	}
	return false
}

// Filter sets every active node whose source path matches no target filter
// to Skip. This is a module-boundary filter: it keeps declarations pulled in
// from other headers (system headers, sibling modules) out of the output.
// One diagnostic is reported per filtered source path.
func Filter(g *ir.Graph, filters []string) []Diagnostic {
	counts := map[string]int{}
	var order []string
	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		if n.Inert() || MatchTarget(n.SourcePath, filters) {
			continue
		}
		g.Prune(i, ir.StateSkip)
		if counts[n.SourcePath] == 0 {
			order = append(order, n.SourcePath)
		}
		counts[n.SourcePath]++
	}

	diags := make([]Diagnostic, 0, len(order))
	for _, src := range order {
		diags = append(diags, Diagnostic{
			Kind:   DiagOutOfTarget,
			Symbol: src,
			Detail: fmt.Sprintf("%d declaration(s) skipped", counts[src]),
		})
	}
	return diags
}
