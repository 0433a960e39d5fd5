package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/ir"
)

// Notice is the fixed header of every generated artifact.
const Notice = "# This file is automatically generated. Do not edit!\n# To re-generate, run wrapgen generate\n\n"

const indent = "    "

var (
	intLiteral   = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|[0-9]+)([uUlL]*)$`)
	floatLiteral = regexp.MustCompile(`^([0-9]*\.?[0-9]+(?:[eE][+-]?[0-9]+)?\.?)([fFlL]?)$`)
)

// Emitter renders declaration graphs for one module.
type Emitter struct {
	opts *config.Options
}

// New returns an emitter using the module's library name.
func New(opts *config.Options) *Emitter {
	return &Emitter{opts: opts}
}

// EmitError reports a declaration that has no rendering.
type EmitError struct {
	Symbol  string
	Message string
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("cannot emit %s: %s", e.Symbol, e.Message)
}

// Emit renders every active node of g, prefixed with Notice.
func (e *Emitter) Emit(g *ir.Graph) (string, error) {
	if e.opts.LibraryName == "" {
		return "", &EmitError{Symbol: "general.library_name", Message: "library name is empty"}
	}

	var b strings.Builder
	b.WriteString(Notice)

	first := true
	for _, n := range g.Nodes() {
		if n.Inert() || n.Expr == nil {
			continue
		}
		text, err := e.node(n)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (e *Emitter) node(n ir.Node) (string, error) {
	switch x := n.Expr.(type) {
	case *ir.FuncDecl:
		if n.Kind == ir.KindVariadicFunction {
			return "# Skipping variadic function: " + x.Name, nil
		}
		if x.Result.IsZero() {
			return "", &EmitError{Symbol: x.Name, Message: "result type is unset"}
		}
		for i, p := range x.Params {
			if p.Type.IsZero() {
				return "", &EmitError{Symbol: x.Name, Message: fmt.Sprintf("type of argument %d (%s) is unset", i, p.Name)}
			}
		}
		return e.function(x), nil
	case *ir.MacroDecl:
		return macro(x), nil
	case *ir.OpaqueDecl:
		return x.Text, nil
	default:
		return "", &EmitError{Symbol: n.ID, Message: fmt.Sprintf("unsupported declaration %T", n.Expr)}
	}
}

func (e *Emitter) function(d *ir.FuncDecl) string {
	names := make([]string, len(d.Params))
	typed := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
		typed[i] = fmt.Sprintf("%s::%s", p.Name, p.Type)
	}

	var b strings.Builder
	if ir.IsChecked(d.Body) {
		b.WriteString("@checked ")
	}
	fmt.Fprintf(&b, "function %s(%s)\n", d.Name, strings.Join(names, ", "))
	if hook, ok := ir.Guard(d.Body); ok {
		fmt.Fprintf(&b, "%s%s()\n", indent, hook)
	}

	native := ir.Native(d.Body)
	call := "@ccall"
	fn := d.Name
	if native != nil {
		if native.GCSafe {
			call = "@gcsafe_ccall"
		}
		fn = native.Func
	}
	fmt.Fprintf(&b, "%s%s %s.%s(%s)::%s\n", indent, call, e.opts.LibraryName, fn, strings.Join(typed, ", "), d.Result)
	b.WriteString("end")
	return b.String()
}

func macro(d *ir.MacroDecl) string {
	if d.FnLike {
		return "# Skipping MacroDefinition: " + d.Name
	}
	switch body := d.Body.(type) {
	case nil:
		return ""
	case *ir.MacroIdent:
		return fmt.Sprintf("const %s = %s", d.Name, body.Name)
	case *ir.MacroLiteral:
		return fmt.Sprintf("const %s = %s", d.Name, Literal(body.Text))
	case *ir.MacroCall:
		at := ""
		if body.Invoke {
			at = "@"
		}
		return fmt.Sprintf("const %s = %s%s(%s)", d.Name, at, body.Callee, strings.Join(body.Args, ", "))
	default:
		return fmt.Sprintf("# Skipping MacroDefinition: %s %s", d.Name, d.Text)
	}
}

// Literal converts a C literal to target syntax. Integer suffixes are
// dropped, single-precision floats become Float32 literals, string and
// char literals are kept as written.
func Literal(s string) string {
	if m := intLiteral.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := floatLiteral.FindStringSubmatch(s); m != nil {
		num := m[1]
		if strings.HasSuffix(num, ".") {
			num += "0"
		}
		if strings.HasPrefix(num, ".") {
			num = "0" + num
		}
		if m[2] == "f" || m[2] == "F" {
			return "Float32(" + num + ")"
		}
		return num
	}
	return s
}
