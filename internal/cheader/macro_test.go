package cheader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/wrapgen/internal/ir"
)

func TestClassifyMacro(t *testing.T) {
	tests := []struct {
		name string
		toks []string
		want ir.MacroBody
	}{
		{"empty", nil, nil},
		{"ident", []string{"cuMemAlloc_v2"}, &ir.MacroIdent{Name: "cuMemAlloc_v2"}},
		{"int", []string{"12040"}, &ir.MacroLiteral{Text: "12040"}},
		{"hex", []string{"0x01u"}, &ir.MacroLiteral{Text: "0x01u"}},
		{"float", []string{".5f"}, &ir.MacroLiteral{Text: ".5f"}},
		{"string", []string{`"11.8"`}, &ir.MacroLiteral{Text: `"11.8"`}},
		{"wide char", []string{`L'x'`}, &ir.MacroLiteral{Text: `L'x'`}},
		{
			"wrapper call",
			[]string{"__CUDA_API_PTDS", "(", "cuMemcpy_v2", ")"},
			&ir.MacroCall{Callee: "__CUDA_API_PTDS", Args: []string{"cuMemcpy_v2"}},
		},
		{
			"struct size",
			[]string{"CU_STRUCT_SIZE", "(", "CUDA_LAUNCH_PARAMS", ",", "kernelParams", ")"},
			&ir.MacroCall{Callee: "CU_STRUCT_SIZE", Args: []string{"CUDA_LAUNCH_PARAMS", "kernelParams"}},
		},
		{
			"nested args",
			[]string{"f", "(", "g", "(", "a", ",", "b", ")", ",", "c", ")"},
			&ir.MacroCall{Callee: "f", Args: []string{"g ( a , b )", "c"}},
		},
		{"no args", []string{"f", "(", ")"}, &ir.MacroCall{Callee: "f"}},
		{"expression", []string{"(", "1", "<<", "3", ")"}, &ir.MacroOpaque{Text: "( 1 << 3 )"}},
		{"call then operator", []string{"f", "(", "a", ")", "|", "(", "b", ")"}, &ir.MacroOpaque{Text: "f ( a ) | ( b )"}},
		{"cast", []string{"(", "(", "CUstream", ")", "0x1", ")"}, &ir.MacroOpaque{Text: "( ( CUstream ) 0x1 )"}},
		{"parenthesized literal", []string{"(", "0x01", ")"}, &ir.MacroLiteral{Text: "0x01"}},
		{"parenthesized ident", []string{"(", "cuMemAlloc_v2", ")"}, &ir.MacroIdent{Name: "cuMemAlloc_v2"}},
		{"double parentheses", []string{"(", "(", "1", ")", ")"}, &ir.MacroOpaque{Text: "( ( 1 ) )"}},
		{"empty parentheses", []string{"(", ")"}, &ir.MacroOpaque{Text: "( )"}},
		{"two groups", []string{"(", "a", ")", "|", "(", "b", ")"}, &ir.MacroOpaque{Text: "( a ) | ( b )"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMacro(tt.toks))
		})
	}
}

func TestIsIdent(t *testing.T) {
	assert.True(t, isIdent("cuInit"))
	assert.True(t, isIdent("_x1"))
	assert.False(t, isIdent("1x"))
	assert.False(t, isIdent(""))
	assert.False(t, isIdent("a-b"))
}
