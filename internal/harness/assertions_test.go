package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/wrapgen/internal/ir"
	"github.com/roach88/wrapgen/internal/rewrite"
)

func okResult() *Result {
	r := NewResult()
	r.Module = "cudadrv"
	r.Status = ir.StatusOK
	r.Output = "@checked function cuInit(Flags)\nend\n"
	r.Stats = rewrite.Stats{Functions: 2, Checked: 1, Aliases: 1}
	r.Diagnostics = []ir.DiagnosticRecord{
		{Kind: "alias_removed", Symbol: "cuMemAlloc"},
		{Kind: "override_applied", Symbol: "cuMemAlloc_v2"},
		{Kind: "override_applied", Symbol: "cuMemFree_v2"},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	r := okResult()
	EvaluateAssertions(r, []Assertion{
		{Type: AssertOutputContains, Text: "@checked function cuInit"},
		{Type: AssertOutputOmits, Text: "cuMemAlloc ="},
		{Type: AssertStat, Stat: "functions", Count: 2},
		{Type: AssertStat, Stat: "guarded", Count: 0},
		{Type: AssertStat, Stat: "functions", Count: 1, AtLeast: true},
		{Type: AssertStat, Stat: "functions", Count: 2, AtLeast: true},
		{Type: AssertDiagnostic, Kind: "alias_removed", Symbol: "cuMemAlloc"},
		{Type: AssertDiagnostic, Kind: "override_applied"},
		{Type: AssertDiagnosticCount, Kind: "override_applied", Count: 2},
		{Type: AssertDiagnosticCount, Kind: "macro_shadowed", Count: 0},
	})

	assert.True(t, r.Pass, r.Errors)
	assert.Empty(t, r.Errors)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"contains", Assertion{Type: AssertOutputContains, Text: "cuCtxCreate"}, `output containing "cuCtxCreate"`},
		{"omits", Assertion{Type: AssertOutputOmits, Text: "cuInit"}, `output without "cuInit"`},
		{"stat", Assertion{Type: AssertStat, Stat: "checked", Count: 3}, "Actual: checked = 1"},
		{"stat lower bound", Assertion{Type: AssertStat, Stat: "checked", Count: 2, AtLeast: true}, "Expected: checked >= 2"},
		{"diagnostic symbol", Assertion{Type: AssertDiagnostic, Kind: "alias_removed", Symbol: "cuCtxCreate"}, "diagnostic alias_removed cuCtxCreate"},
		{"diagnostic count", Assertion{Type: AssertDiagnosticCount, Kind: "override_applied", Count: 1}, "1 diagnostic(s) of kind override_applied"},
		{"module_failed on success", Assertion{Type: AssertModuleFailed, Phase: "rewrite"}, "Actual: module generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := okResult()
			EvaluateAssertions(r, []Assertion{tt.assertion})

			assert.False(t, r.Pass)
			if assert.Len(t, r.Errors, 1) {
				assert.Contains(t, r.Errors[0], tt.wantErr)
			}
		})
	}
}

func failedResult() *Result {
	r := NewResult()
	r.Module = "cudadrv"
	r.Status = ir.StatusFailed
	r.Phase = "rewrite"
	r.Error = `module cudadrv: rewrite: cuInit: argument 3: index out of range for 1 declared argument(s) ("Cuint")`
	return r
}

func TestEvaluateAssertions_ModuleFailed(t *testing.T) {
	r := failedResult()
	EvaluateAssertions(r, []Assertion{{Type: AssertModuleFailed, Phase: "rewrite", Message: "index out of range"}})
	assert.True(t, r.Pass, r.Errors)

	r = failedResult()
	EvaluateAssertions(r, []Assertion{{Type: AssertModuleFailed, Phase: "config"}})
	assert.False(t, r.Pass)
	assert.Contains(t, r.Errors[0], "failure in phase config")

	r = failedResult()
	EvaluateAssertions(r, []Assertion{{Type: AssertModuleFailed, Phase: "rewrite", Message: "malformed"}})
	assert.False(t, r.Pass)
	assert.Contains(t, r.Errors[0], `error containing "malformed"`)
}

func TestEvaluateAssertions_UnexpectedFailure(t *testing.T) {
	r := failedResult()
	EvaluateAssertions(r, []Assertion{
		{Type: AssertOutputContains, Text: "cuInit"},
		{Type: AssertStat, Stat: "functions", Count: 1},
	})

	assert.False(t, r.Pass)
	assert.Len(t, r.Errors, 1, "an unexpected failure is reported once")
	assert.Contains(t, r.Errors[0], "module cudadrv failed in rewrite")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertStat, Expected: "checked = 2", Actual: "checked = 1"}
	assert.Equal(t, "Assertion failed: stat\n  Expected: checked = 2\n  Actual: checked = 1", err.Error())
}
