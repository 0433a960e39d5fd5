package cheader

import (
	"strings"
	"unicode"

	"github.com/roach88/wrapgen/internal/ir"
)

// ClassifyMacro maps a replacement list, given as token spellings, onto a
// macro body. It returns nil for an empty list. One pair of parentheses
// around the whole list is ignored, so (0x01) is a literal.
func ClassifyMacro(toks []string) ir.MacroBody {
	if len(toks) == 0 {
		return nil
	}
	inner := toks
	if enclosed(toks) {
		inner = toks[1 : len(toks)-1]
	}
	switch {
	case len(inner) == 1 && isIdent(inner[0]):
		return &ir.MacroIdent{Name: inner[0]}
	case len(inner) == 1 && isLiteral(inner[0]):
		return &ir.MacroLiteral{Text: inner[0]}
	}
	if call, ok := classifyCall(inner); ok {
		return call
	}
	return &ir.MacroOpaque{Text: strings.Join(toks, " ")}
}

// enclosed reports whether the first token opens a parenthesis that the
// last token closes.
func enclosed(toks []string) bool {
	if len(toks) < 3 || toks[0] != "(" || toks[len(toks)-1] != ")" {
		return false
	}
	depth := 0
	for _, tok := range toks[:len(toks)-1] {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				// (a) | (b)
				return false
			}
		}
	}
	return depth == 1
}

// classifyCall recognizes CALLEE ( args ) spanning the whole list.
func classifyCall(toks []string) (*ir.MacroCall, bool) {
	if len(toks) < 3 || !isIdent(toks[0]) || toks[1] != "(" || toks[len(toks)-1] != ")" {
		return nil, false
	}

	call := &ir.MacroCall{Callee: toks[0]}
	var arg []string
	depth := 0
	for _, tok := range toks[2 : len(toks)-1] {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				// CALLEE(a) op (b)
				return nil, false
			}
		case ",":
			if depth == 0 {
				call.Args = append(call.Args, strings.Join(arg, " "))
				arg = arg[:0]
				continue
			}
		}
		arg = append(arg, tok)
	}
	if depth != 0 {
		return nil, false
	}
	if len(arg) > 0 || len(call.Args) > 0 {
		call.Args = append(call.Args, strings.Join(arg, " "))
	}
	return call, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func isLiteral(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '"', '\'':
		return len(s) >= 2 && s[len(s)-1] == s[0]
	case 'L', 'u', 'U':
		// wide and unicode string or char literals
		rest := strings.TrimPrefix(s[1:], "8")
		return len(rest) >= 2 && (rest[0] == '"' || rest[0] == '\'') && rest[len(rest)-1] == rest[0]
	}
	if unicode.IsDigit(rune(s[0])) {
		return true
	}
	return s[0] == '.' && len(s) > 1 && unicode.IsDigit(rune(s[1]))
}
