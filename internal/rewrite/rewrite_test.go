package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/ir"
)

func TestRewriteSkipsInertAndVariadic(t *testing.T) {
	variadic := funcNode("cuLog", "Cvoid", "Cstring")
	variadic.Kind = ir.KindVariadicFunction
	g := ir.NewGraph(
		funcNode("cuInit", "CUresult", "Cuint"),
		variadic,
		funcNode("cuDropped", "CUresult"),
	)
	g.Prune(2, ir.StateSkip)

	stats, _, err := Rewrite(g, testOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Functions)
	assert.Equal(t, 1, stats.Checked)
	assert.Equal(t, 1, stats.Guarded)
	assert.True(t, ir.IsChecked(funcDecl(g, 0).Body))
	assert.IsType(t, &ir.NativeCall{}, g.Node(1).Expr.(*ir.FuncDecl).Body)
	assert.Nil(t, g.Node(2).Expr)
}

func TestRewriteConfigErrorAborts(t *testing.T) {
	opts := testOptions()
	opts.Functions["cuBad"] = config.FunctionOptions{ArgTypes: map[int]string{3: "Cint"}, NeedsContext: true}
	g := ir.NewGraph(
		funcNode("cuBad", "CUresult", "Cint"),
		funcNode("cuAfter", "CUresult"),
	)

	_, _, err := Rewrite(g, opts)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.IsType(t, &ir.NativeCall{}, funcDecl(g, 1).Body, "later functions are not rewritten")
}

func TestRewriteReportsTemplateMatches(t *testing.T) {
	opts := testOptions()
	opts.Templates["cublas𝕏axpy"] = config.FunctionOptions{ArgTypes: map[int]string{1: "Ptr{T}"}, NeedsContext: true}
	g := ir.NewGraph(funcNode("cublasSaxpy", "cublasStatus_t", "Cint", "Ptr{Cvoid}"))

	stats, diags, err := Rewrite(g, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Overridden)
	assert.Equal(t, 1, Count(diags, DiagTemplateMatched))
	assert.Equal(t, "Ptr{Cfloat}", funcDecl(g, 0).Params[1].Type.String())
}

func TestRunPipeline(t *testing.T) {
	opts := testOptions()
	opts.Functions["cuGetErrorString"] = config.FunctionOptions{NeedsContext: false}

	other := funcNode("memcpy", "Ptr{Cvoid}", "Ptr{Cvoid}", "Ptr{Cvoid}", "Csize_t")
	other.SourcePath = "/usr/include/string.h"

	g := ir.NewGraph(
		funcNode("cuInit", "CUresult", "Cuint"),
		funcNode("cuDriverGetVersion", "Cint", "Ptr{Cint}"),
		funcNode("cuGetErrorString", "CUresult", "CUresult", "Ptr{Cstring}"),
		macroNode("cuInit_v1", &ir.MacroIdent{Name: "cuInit"}),
		macroNode("cuInit", &ir.MacroLiteral{Text: "0"}),
		other,
	)

	stats, diags, err := Run(g, opts, []string{"cuda.h"})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 2, stats.Guarded)
	assert.Equal(t, 1, stats.Shadowed)
	assert.Equal(t, 1, stats.Aliases)
	assert.Equal(t, 1, stats.Filtered)

	assert.Equal(t, ir.StateEmpty, g.Node(3).State)
	assert.Equal(t, ir.StateSkip, g.Node(4).State)
	assert.Equal(t, ir.StateSkip, g.Node(5).State)
	assert.Equal(t, 1, Count(diags, DiagOutOfTarget))

	_, guarded := ir.Guard(funcDecl(g, 2).Body)
	assert.False(t, guarded)
	assert.False(t, ir.IsChecked(funcDecl(g, 1).Body))
}

func TestMatchTarget(t *testing.T) {
	tests := []struct {
		path    string
		filters []string
		want    bool
	}{
		{"/opt/cuda/include/cuda.h", nil, true},
		{"/opt/cuda/include/cuda.h", []string{"cuda.h"}, true},
		{"/opt/cuda/include/cudaProfiler.h", []string{"cuda.h"}, false},
		{"/opt/cuda/include/cublas_api.h", []string{"cublas*.h"}, true},
		{"/opt/cuda/include/cublas_api.h", []string{"/opt/*/include/*.h"}, true},
		{"/usr/include/stdio.h", []string{"cublas*.h", "cuda.h"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchTarget(tt.path, tt.filters), "%s %v", tt.path, tt.filters)
	}
}
