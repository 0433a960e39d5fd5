package cheader

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"modernc.org/cc/v3"

	"github.com/roach88/wrapgen/internal/ir"
)

const (
	predefinedSource  = "<predefined>"
	commandLineSource = "<command-line>"
)

// builtinBase neutralizes compiler extensions the parser does not know.
const builtinBase = `
#define __builtin_va_list void *
#define __asm(x)
#define __asm__(x)
#define __inline
#define __inline__
#define __signed
#define __signed__
#define __const const
#define __extension__
#define __attribute__(x)
#define __attribute(x)
#define __restrict
#define __restrict__
#define __volatile__
#define __declspec(x)
#define __builtin_inff() (0)
#define __builtin_infl() (0)
#define __builtin_inf() (0)
#define __builtin_fabsf(x) (0)
#define __builtin_fabsl(x) (0)
#define __builtin_fabs(x) (0)
`

// basePredefines stand in for the host compiler's when none is available.
const basePredefines = `
#define __STDC_HOSTED__ 1
#define __STDC_VERSION__ 199901L
#define __STDC__ 1
#define __GNUC__ 4
#define __GNUC_PREREQ(maj,min) 0
#define __has_include_next(...) 1
#define __FLT_MIN__ 0
#define __DBL_MIN__ 0
#define __LDBL_MIN__ 0
`

// reserved are target-language keywords that cannot name a parameter.
var reserved = map[string]bool{
	"begin": true, "end": true, "function": true, "type": true, "module": true,
	"local": true, "global": true, "quote": true, "let": true, "do": true,
	"macro": true, "struct": true, "mutable": true, "abstract": true,
}

// Parser builds declaration graphs with modernc.org/cc/v3.
type Parser struct {
	// Predefined is prepended to every translation unit.
	Predefined string
	// SysIncludePaths are searched for <...> includes after any -isystem flag.
	SysIncludePaths []string

	abi cc.ABI
}

// NewParser returns a parser for the host platform. Predefined macros and
// system include paths are taken from the host C preprocessor when one is
// installed.
func NewParser() (*Parser, error) {
	abi, err := cc.NewABI(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("creating ABI for %s/%s: %w", runtime.GOOS, runtime.GOARCH, err)
	}

	predefined, _, sysIncludes, err := cc.HostConfig("")
	if err != nil {
		predefined = basePredefines
		sysIncludes = []string{"/usr/local/include", "/usr/include"}
	}
	return &Parser{
		Predefined:      predefined + builtinBase,
		SysIncludePaths: sysIncludes,
		abi:             abi,
	}, nil
}

// Parse builds the declaration graph of the module's headers.
// args are parser flags as returned by BuildArgs.
func (p *Parser) Parse(ctx context.Context, spec ir.ModuleSpec, args []string) (*ir.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(spec.Headers) == 0 {
		return nil, &ParseError{Module: spec.Name, Err: fmt.Errorf("no headers")}
	}

	f, err := parseArgs(args)
	if err != nil {
		return nil, &ParseError{Module: spec.Name, Headers: spec.Headers, Err: err}
	}

	sources := []cc.Source{
		{Name: predefinedSource, Value: p.Predefined},
		{Name: commandLineSource, Value: strings.Join(f.defines, "\n") + "\n"},
	}
	for _, h := range spec.Headers {
		abs, err := filepath.Abs(h)
		if err != nil {
			return nil, &ParseError{Module: spec.Name, Headers: spec.Headers, Err: err}
		}
		sources = append(sources, cc.Source{Name: abs, DoNotCache: true})
	}

	// -I directories serve <...> includes too, ahead of -isystem and the
	// host directories.
	includes := append([]string{"@"}, absAll(f.includes)...)
	sysIncludes := append(absAll(f.includes), absAll(f.sysIncludes)...)
	sysIncludes = append(sysIncludes, p.SysIncludePaths...)

	cfg := &cc.Config{ABI: p.abi}
	ast, err := cc.Translate(cfg, includes, sysIncludes, sources)
	if err != nil {
		return nil, &ParseError{Module: spec.Name, Headers: spec.Headers, Err: err}
	}
	if ast == nil {
		return ir.NewGraph(), nil
	}
	return buildGraph(ast), nil
}

// entry is a node waiting to be placed in source order.
type entry struct {
	node ir.Node
	seq  int
}

func buildGraph(ast *cc.AST) *ir.Graph {
	var entries []entry
	rank := map[string]int{}
	add := func(n ir.Node) {
		if _, ok := rank[n.SourcePath]; !ok {
			rank[n.SourcePath] = len(rank)
		}
		entries = append(entries, entry{node: n, seq: len(entries)})
	}

	// C allows redeclaring a prototype or typedef; the first one wins
	seen := map[string]bool{}
	for tu := ast.TranslationUnit; tu != nil; tu = tu.TranslationUnit {
		ed := tu.ExternalDeclaration
		if ed == nil || ed.Declaration == nil {
			continue
		}
		for l := ed.Declaration.InitDeclaratorList; l != nil; l = l.InitDeclaratorList {
			if l.InitDeclarator == nil || l.InitDeclarator.Declarator == nil {
				continue
			}
			n, ok := declNode(l.InitDeclarator.Declarator)
			if !ok || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			add(n)
		}
	}

	// map order is random; sort before ranking files first seen here
	type namedMacro struct {
		name string
		m    *cc.Macro
	}
	macros := make([]namedMacro, 0, len(ast.Macros))
	for id, m := range ast.Macros {
		macros = append(macros, namedMacro{name: id.String(), m: m})
	}
	sort.Slice(macros, func(i, j int) bool { return macros[i].name < macros[j].name })
	for _, nm := range macros {
		if n, ok := macroNode(nm.name, nm.m); ok {
			add(n)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].node, entries[j].node
		if rank[a.SourcePath] != rank[b.SourcePath] {
			return rank[a.SourcePath] < rank[b.SourcePath]
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return entries[i].seq < entries[j].seq
	})

	g := ir.NewGraph()
	for _, e := range entries {
		g.Add(e.node)
	}
	return g
}

func isBuiltin(file string) bool {
	return file == "" || file == predefinedSource || file == commandLineSource
}

func declNode(d *cc.Declarator) (ir.Node, bool) {
	pos := d.Position()
	if isBuiltin(pos.Filename) || d.IsParameter {
		return ir.Node{}, false
	}
	name := d.Name().String()
	t := d.Type()
	if name == "" || t == nil {
		return ir.Node{}, false
	}

	n := ir.Node{ID: name, SourcePath: pos.Filename, Line: pos.Line}
	switch {
	case d.IsTypedefName:
		n.Kind = ir.KindOther
		n.Expr = &ir.OpaqueDecl{Text: typedefText(name, t)}
	case t.Kind() == cc.Function:
		n.Kind = ir.KindFunction
		if t.IsVariadic() {
			n.Kind = ir.KindVariadicFunction
		}
		n.Expr = funcDecl(name, t)
	default:
		// extern variables are not bound
		return ir.Node{}, false
	}
	return n, true
}

func funcDecl(name string, t cc.Type) *ir.FuncDecl {
	decl := &ir.FuncDecl{
		Name:   name,
		Result: typeExpr(t.Result(), false),
		Body:   &ir.NativeCall{Func: name},
	}
	params := t.Parameters()
	// f(void)
	if len(params) == 1 && params[0].Type().Kind() == cc.Void && params[0].Name().String() == "" {
		params = nil
	}
	for i, p := range params {
		pname := p.Name().String()
		switch {
		case pname == "":
			pname = fmt.Sprintf("arg%d", i+1)
		case reserved[pname]:
			pname = "_" + pname
		}
		decl.Params = append(decl.Params, ir.Param{Name: pname, Type: typeExpr(p.Type(), false)})
	}
	return decl
}

func typedefText(name string, t cc.Type) string {
	target := typeExpr(t, true)
	var b strings.Builder
	if tag := structTag(t); tag != "" {
		fmt.Fprintf(&b, "mutable struct %s end\n", tag)
		if tag == name {
			return strings.TrimSuffix(b.String(), "\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "const %s = %s", name, target)
	return b.String()
}

// structTag returns the tag of a struct or union type, or of the type a
// pointer points to.
func structTag(t cc.Type) string {
	if t.Kind() == cc.Ptr && t.Elem() != nil {
		t = t.Elem()
		if t.IsAliasType() {
			return ""
		}
	}
	if t.Kind() == cc.Struct || t.Kind() == cc.Union {
		return t.Tag().String()
	}
	return ""
}

func macroNode(name string, m *cc.Macro) (ir.Node, bool) {
	if m == nil {
		return ir.Node{}, false
	}
	pos := m.Position()
	if isBuiltin(pos.Filename) {
		return ir.Node{}, false
	}

	toks := m.ReplacementTokens()
	spell := make([]string, 0, len(toks))
	for _, tok := range toks {
		spell = append(spell, tok.Value.String())
	}

	decl := &ir.MacroDecl{
		Name:   name,
		FnLike: m.IsFnLike(),
		Text:   strings.Join(spell, " "),
	}
	if !decl.FnLike {
		decl.Body = ClassifyMacro(spell)
	}
	return ir.Node{
		ID:         name,
		Kind:       ir.KindMacro,
		SourcePath: pos.Filename,
		Line:       pos.Line,
		Expr:       decl,
	}, true
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}
