package compiler

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"

	"github.com/roach88/wrapgen/internal/ir"
)

//go:embed schema.cue
var schemaSrc string

// schema returns the #Module definition compiled in the context of v.
func schema(v cue.Value) (cue.Value, error) {
	s := v.Context().CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compiling module schema: %w", err)
	}
	return s.LookupPath(cue.ParsePath("#Module")), nil
}

// CompileModule parses one registry entry into a ModuleSpec.
// The entry is checked against the #Module schema first, so unknown
// fields and missing headers or config are reported with their position.
// Relative paths resolve against baseDir.
//
// The CUE value should be the entry itself, e.g.:
//
//	v := ctx.CompileString(`module: cudadrv: { ... }`)
//	spec, err := CompileModule(v.LookupPath(cue.ParsePath("module.cudadrv")), dir)
func CompileModule(v cue.Value, baseDir string) (*ir.ModuleSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def, err := schema(v)
	if err != nil {
		return nil, err
	}
	checked := def.Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModuleSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}
	if spec.Name == "" {
		return nil, &CompileError{Field: "module", Message: "module name is required", Pos: v.Pos()}
	}

	if spec.Family, err = optionalString(checked, "family"); err != nil {
		return nil, err
	}

	headers, err := stringList(checked, "headers")
	if err != nil {
		return nil, err
	}
	spec.Headers = resolveAll(baseDir, headers)

	if spec.Targets, err = stringList(checked, "targets"); err != nil {
		return nil, err
	}

	dirs, err := stringList(checked, "include_dirs")
	if err != nil {
		return nil, err
	}
	spec.IncludeDirs = resolveAll(baseDir, dirs)

	if spec.Defines, err = parseDefines(checked); err != nil {
		return nil, err
	}

	cfg, err := checked.LookupPath(cue.ParsePath("config")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.ConfigPath = resolve(baseDir, cfg)

	return spec, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseDefines(v cue.Value) ([]ir.Define, error) {
	f := v.LookupPath(cue.ParsePath("defines"))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var defines []ir.Define
	for iter.Next() {
		var d ir.Define
		if err := iter.Value().Decode(&d); err != nil {
			return nil, formatCUEError(err)
		}
		defines = append(defines, d)
	}
	return defines, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

func resolveAll(baseDir string, paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolve(baseDir, p)
	}
	return out
}
