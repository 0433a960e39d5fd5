package rewrite

import (
	"strings"

	"github.com/roach88/wrapgen/internal/config"
)

// NumericSuffix marks the 64-bit-index variant of a function (cublasSgemm_64).
const NumericSuffix = "_64"

// TypeCode is a single-letter type suffix used by type-specialized
// function families, with the concrete types it stands for.
type TypeCode struct {
	Code rune
	T    string // element type
	S    string // scalar (real) type
}

// TypeCodes lists the recognized codes in lookup order.
var TypeCodes = []TypeCode{
	{Code: 'S', T: "Cfloat", S: "Cfloat"},
	{Code: 'D', T: "Cdouble", S: "Cdouble"},
	{Code: 'H', T: "Float16", S: "Float16"},
	{Code: 'C', T: "cuComplex", S: "Cfloat"},
	{Code: 'Z', T: "cuDoubleComplex", S: "Cdouble"},
}

// wideIntegers maps generic 32-bit integer names to their 64-bit equivalent,
// applied to override expressions of _64 functions.
var wideIntegers = map[string]string{
	"Cint":  "Int64",
	"Cuint": "UInt64",
}

// TemplateKey is one template candidate derived from a function name.
type TemplateKey struct {
	Key  string
	Code TypeCode
}

// TemplateKeys returns every key obtainable from name by replacing a single
// occurrence of a type code with the template placeholder. Codes are tried
// in TypeCodes order, occurrences left to right.
//
// Every occurrence is a candidate, including letters that are not really a
// type suffix (the C in cublasCreate). Such keys only matter if a template
// entry with that exact shape is configured.
func TemplateKeys(name string) []TemplateKey {
	var keys []TemplateKey
	for _, tc := range TypeCodes {
		for i, r := range name {
			if r != tc.Code {
				continue
			}
			key := name[:i] + config.TemplatePlaceholder + name[i+1:]
			keys = append(keys, TemplateKey{Key: key, Code: tc})
		}
	}
	return keys
}

// Resolution is the outcome of looking up a function's options.
type Resolution struct {
	Options  config.FunctionOptions
	Key      string // matched entry, empty when defaults apply
	Found    bool
	Template bool
	Code     TypeCode // set when Template is true
	Wide     bool     // function name carries NumericSuffix
}

// Substitutions returns the identifier replacements applied to override
// expressions for this resolution.
func (r Resolution) Substitutions() map[string]string {
	repl := map[string]string{}
	if r.Template {
		repl["T"] = r.Code.T
		repl["S"] = r.Code.S
	}
	if r.Wide {
		for k, v := range wideIntegers {
			repl[k] = v
		}
	}
	return repl
}

// Resolve finds the options that apply to the function name, trying in
// order: the exact name, the name without NumericSuffix, then the template
// keys of the name and of the stripped name. The first configured entry
// wins; when none matches, default options apply.
func Resolve(opts *config.Options, name string) Resolution {
	res := Resolution{Options: config.DefaultFunctionOptions()}
	res.Wide = strings.HasSuffix(name, NumericSuffix)

	candidates := []string{name}
	if res.Wide {
		candidates = append(candidates, strings.TrimSuffix(name, NumericSuffix))
	}

	for _, c := range candidates {
		if fn, ok := opts.Functions[c]; ok {
			res.Options, res.Key, res.Found = fn, c, true
			return res
		}
	}
	for _, c := range candidates {
		for _, tk := range TemplateKeys(c) {
			if fn, ok := opts.Templates[tk.Key]; ok {
				res.Options, res.Key, res.Found = fn, tk.Key, true
				res.Template, res.Code = true, tk.Code
				return res
			}
		}
	}
	return res
}
