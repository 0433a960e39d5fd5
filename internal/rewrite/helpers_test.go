package rewrite

import (
	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/ir"
)

func funcNode(name, result string, params ...string) ir.Node {
	decl := &ir.FuncDecl{
		Name:   name,
		Result: ir.MustParseType(result),
		Body:   &ir.NativeCall{Func: name},
	}
	for i, p := range params {
		decl.Params = append(decl.Params, ir.Param{Name: "arg" + string(rune('1'+i)), Type: ir.MustParseType(p)})
	}
	return ir.Node{ID: name, Kind: ir.KindFunction, SourcePath: "/inc/cuda.h", Expr: decl}
}

func macroNode(name string, body ir.MacroBody) ir.Node {
	return ir.Node{
		ID:         name,
		Kind:       ir.KindMacro,
		SourcePath: "/inc/cuda.h",
		Expr:       &ir.MacroDecl{Name: name, Body: body},
	}
}

func funcDecl(g *ir.Graph, i int) *ir.FuncDecl {
	return g.Node(i).Expr.(*ir.FuncDecl)
}

func testOptions() *config.Options {
	opts := config.NewOptions("cuda")
	opts.OutputFilePath = "out.jl"
	opts.CheckedReturnTypes["CUresult"] = true
	return opts
}
