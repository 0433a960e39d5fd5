package cheader

import (
	"strconv"

	"modernc.org/cc/v3"

	"github.com/roach88/wrapgen/internal/ir"
)

// knownAliases maps common typedef names onto the target's builtin types.
var knownAliases = map[string]string{
	"size_t":    "Csize_t",
	"ssize_t":   "Cssize_t",
	"ptrdiff_t": "Cptrdiff_t",
	"intptr_t":  "Cintptr_t",
	"uintptr_t": "Cuintptr_t",
	"wchar_t":   "Cwchar_t",
	"int8_t":    "Int8",
	"int16_t":   "Int16",
	"int32_t":   "Int32",
	"int64_t":   "Int64",
	"uint8_t":   "UInt8",
	"uint16_t":  "UInt16",
	"uint32_t":  "UInt32",
	"uint64_t":  "UInt64",
	"FILE":      "Libc.FILE",
}

var scalarNames = map[cc.Kind]string{
	cc.Void:       "Cvoid",
	cc.Bool:       "Bool",
	cc.Char:       "Cchar",
	cc.SChar:      "Cschar",
	cc.UChar:      "Cuchar",
	cc.Short:      "Cshort",
	cc.UShort:     "Cushort",
	cc.Int:        "Cint",
	cc.UInt:       "Cuint",
	cc.Long:       "Clong",
	cc.ULong:      "Culong",
	cc.LongLong:   "Clonglong",
	cc.ULongLong:  "Culonglong",
	cc.Float:      "Cfloat",
	cc.Double:     "Cdouble",
	cc.LongDouble: "Float64",
	cc.Enum:       "Cuint",
}

// typeExpr maps a C type onto a target type expression. Typedef names are
// kept as is unless known, except at the top level of a typedef's own
// definition where the aliased type is spelled out.
func typeExpr(t cc.Type, top bool) ir.TypeExpr {
	if t == nil {
		return ir.T("Cvoid")
	}
	if !top && t.IsAliasType() {
		if d := t.AliasDeclarator(); d != nil {
			name := d.Name().String()
			if mapped, ok := knownAliases[name]; ok {
				return ir.T(mapped)
			}
			return ir.T(name)
		}
	}

	switch k := t.Kind(); k {
	case cc.Ptr:
		elem := t.Elem()
		if elem == nil || elem.Kind() == cc.Function {
			return ir.T("Ptr", ir.T("Cvoid"))
		}
		return ir.T("Ptr", typeExpr(elem, false))
	case cc.Array:
		return ir.T("NTuple", ir.T(strconv.FormatUint(uint64(t.Len()), 10)), typeExpr(t.Elem(), false))
	case cc.Struct, cc.Union:
		if tag := t.Tag().String(); tag != "" {
			return ir.T(tag)
		}
		return ir.T("Cvoid")
	case cc.Function:
		return ir.T("Ptr", ir.T("Cvoid"))
	default:
		if name, ok := scalarNames[k]; ok {
			return ir.T(name)
		}
		return ir.T("Cvoid")
	}
}
