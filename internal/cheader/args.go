package cheader

import (
	"fmt"
	"strings"

	"github.com/roach88/wrapgen/internal/ir"
)

// DefaultArgs are the parser flags every module starts from.
var DefaultArgs = []string{"-x", "c", "-std=c99", "-fno-builtin"}

// BuildArgs returns the parser flags for a module: DefaultArgs, then one
// -I per include directory, then one -D per define.
func BuildArgs(spec ir.ModuleSpec) []string {
	args := append([]string(nil), DefaultArgs...)
	for _, dir := range spec.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, d := range spec.Defines {
		args = append(args, d.Flag())
	}
	return args
}

// flags is the subset of the parser flags the adapter acts on.
type flags struct {
	includes    []string
	sysIncludes []string
	defines     []string // "#define ..." / "#undef ..." lines
}

func parseArgs(args []string) (flags, error) {
	var f flags
	for i := 0; i < len(args); i++ {
		a := args[i]
		// flags that take a separate value
		next := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s requires a value", a)
			}
			i++
			return args[i], nil
		}

		switch {
		case a == "-I" || a == "-isystem" || a == "-D" || a == "-U":
			v, err := next()
			if err != nil {
				return f, err
			}
			f.apply(a, v)
		case strings.HasPrefix(a, "-isystem"):
			f.apply("-isystem", strings.TrimPrefix(a, "-isystem"))
		case strings.HasPrefix(a, "-I"), strings.HasPrefix(a, "-D"), strings.HasPrefix(a, "-U"):
			f.apply(a[:2], a[2:])
		case a == "-x":
			// language selector, value ignored: headers are always C
			if _, err := next(); err != nil {
				return f, err
			}
		default:
			// -std=, -f* and friends do not change how cc parses
		}
	}
	return f, nil
}

func (f *flags) apply(flag, v string) {
	switch flag {
	case "-I":
		f.includes = append(f.includes, v)
	case "-isystem":
		f.sysIncludes = append(f.sysIncludes, v)
	case "-D":
		name, value, ok := strings.Cut(v, "=")
		if !ok {
			value = "1"
		}
		f.defines = append(f.defines, fmt.Sprintf("#define %s %s", name, value))
	case "-U":
		f.defines = append(f.defines, "#undef "+v)
	}
}
