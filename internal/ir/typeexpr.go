package ir

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeExpr is a parsed target-language type expression such as
// Ptr{Cfloat} or NTuple{16, Cchar}. Values are immutable: Substitute
// returns a new tree.
type TypeExpr struct {
	Name   string
	Params []TypeExpr
}

// T is shorthand for building a TypeExpr.
func T(name string, params ...TypeExpr) TypeExpr {
	return TypeExpr{Name: name, Params: params}
}

// IsZero reports whether the expression is unset.
func (t TypeExpr) IsZero() bool {
	return t.Name == "" && len(t.Params) == 0
}

// String renders the expression in target syntax.
func (t TypeExpr) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('{')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Substitute replaces every identifier found in repl, at any depth.
// Only whole identifiers match: T does not match inside CUtensor.
func (t TypeExpr) Substitute(repl map[string]string) TypeExpr {
	out := TypeExpr{Name: t.Name}
	if r, ok := repl[t.Name]; ok {
		out.Name = r
	}
	if len(t.Params) > 0 {
		out.Params = make([]TypeExpr, len(t.Params))
		for i, p := range t.Params {
			out.Params[i] = p.Substitute(repl)
		}
	}
	return out
}

// Equal reports structural equality.
func (t TypeExpr) Equal(o TypeExpr) bool {
	if t.Name != o.Name || len(t.Params) != len(o.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// TypeParseError reports a malformed type expression.
type TypeParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *TypeParseError) Error() string {
	return fmt.Sprintf("malformed type expression %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// ParseType parses a type expression.
//
//	type   := ident [ "{" type { "," type } "}" ]
//	ident  := (letter | digit | "_" | ".")+
func ParseType(s string) (TypeExpr, error) {
	p := &typeParser{src: []rune(s), input: s}
	t, err := p.parseType()
	if err != nil {
		return TypeExpr{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeExpr{}, p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or for literals known to be valid.
func MustParseType(s string) TypeExpr {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src   []rune
	pos   int
	input string
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeParseError{Input: p.input, Offset: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *typeParser) parseType() (TypeExpr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isTypeIdentRune(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		if p.pos == len(p.src) {
			return TypeExpr{}, p.errorf("expected identifier, got end of input")
		}
		return TypeExpr{}, p.errorf("expected identifier, got %q", string(p.src[p.pos]))
	}
	t := TypeExpr{Name: string(p.src[start:p.pos])}

	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return t, nil
	}
	p.pos++ // '{'
	for {
		param, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		t.Params = append(t.Params, param)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return TypeExpr{}, p.errorf("unterminated parameter list")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return t, nil
		default:
			return TypeExpr{}, p.errorf("expected ',' or '}', got %q", string(p.src[p.pos]))
		}
	}
}

func isTypeIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
