package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wrapgen/internal/ir"
)

func TestLoadRegistryFile(t *testing.T) {
	path := writeRegistry(t)

	result, errs := LoadRegistry(path, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	require.Len(t, result.Modules, 3)
	assert.Equal(t, "cudadrv", result.Modules[0].Name, "declaration order")
	assert.Equal(t, "cudart", result.Modules[1].Name)
	assert.Equal(t, "nvml", result.Modules[2].Name)

	dir := filepath.Dir(path)
	assert.Equal(t, []string{filepath.Join(dir, "include", "cuda.h")}, result.Modules[0].Headers)
	assert.Equal(t, filepath.Join(dir, "cudadrv.toml"), result.Modules[0].ConfigPath)
	assert.Equal(t, "cuda", result.Modules[0].Family)
	assert.Equal(t, 1, result.FileCount)
}

func TestLoadRegistryDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cuda.cue": "package registry\n\nmodule: cudadrv: {headers: [\"cuda.h\"], config: \"cudadrv.toml\"}\n",
		"nvml.cue": "package registry\n\nmodule: nvml: {headers: [\"nvml.h\"], config: \"nvml.toml\"}\n",
	})

	result, errs := LoadRegistry(dir, LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Modules, 2)
	assert.Equal(t, filepath.Join(dir, "nvml.h"), moduleNamed(t, result.Modules, "nvml").Headers[0])
}

func moduleNamed(t *testing.T, specs []ir.ModuleSpec, name string) ir.ModuleSpec {
	t.Helper()
	for _, s := range specs {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("module %s not found", name)
	return ir.ModuleSpec{}
}

func TestLoadRegistryErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		path     string // relative to the temp dir; empty means the dir
		wantCode string
	}{
		{"missing path", nil, "absent.cue", ErrCodeNotFound},
		{"empty directory", nil, "", ErrCodeNoFiles},
		{"syntax error", map[string]string{"r.cue": "module: {"}, "r.cue", ErrCodeLoadFailed},
		{"no module field", map[string]string{"r.cue": "other: 1\n"}, "r.cue", ErrCodeNoModules},
		{"missing config", map[string]string{"r.cue": "module: m: {headers: [\"m.h\"]}\n"}, "r.cue", ErrCodeInvalidModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)

			_, errs := LoadRegistry(filepath.Join(dir, tt.path), LoadModeFailFast)
			require.NotEmpty(t, errs)
			var le *LoadError
			require.True(t, errors.As(errs[0], &le), "got %T", errs[0])
			assert.Equal(t, tt.wantCode, le.Code, le.Error())
		})
	}
}

func TestLoadRegistryCollectAll(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"r.cue": `module: a: {headers: ["a.h"]}
module: b: {headers: ["b.h"], config: "b.toml"}
module: c: {config: "c.toml"}
`,
	})
	path := filepath.Join(dir, "r.cue")

	result, errs := LoadRegistry(path, LoadModeFailFast)
	assert.Len(t, errs, 1)
	assert.Empty(t, result.Modules)

	result, errs = LoadRegistry(path, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, result.Modules, 1)
	assert.Equal(t, "b", result.Modules[0].Name)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, "a", le.Module)
	assert.Contains(t, le.Error(), "module a:")
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "registry not found: r.cue"}
	assert.Equal(t, "E005: registry not found: r.cue", err.Error())

	err = &LoadError{Code: ErrCodeInvalidModule, Module: "nvml", Message: "config: incomplete value"}
	assert.Equal(t, "E008: module nvml: config: incomplete value", err.Error())
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.cue":     "",
		"sub/b.cue": "",
		"notes.txt": "",
		"cuda.toml": "",
	})

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = FindCUEFiles(filepath.Join(dir, "absent"))
	assert.True(t, os.IsNotExist(err))
}

func TestSelect(t *testing.T) {
	specs := []ir.ModuleSpec{
		{Name: "cudadrv", Family: "cuda"},
		{Name: "cudart", Family: "cuda"},
		{Name: "nvml"},
		{Name: "cublas", Family: "cublas"},
	}

	tests := []struct {
		selection string
		want      []string
	}{
		{"", []string{"cudadrv", "cudart", "nvml", "cublas"}},
		{SelectAll, []string{"cudadrv", "cudart", "nvml", "cublas"}},
		{"nvml", []string{"nvml"}},
		{"cuda", []string{"cudadrv", "cudart"}},
		{"cublas", []string{"cublas"}}, // module name wins over family
	}

	for _, tt := range tests {
		t.Run("select "+tt.selection, func(t *testing.T) {
			got, err := Select(specs, tt.selection)
			require.NoError(t, err)
			names := make([]string, len(got))
			for i, s := range got {
				names[i] = s.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSelectUnknown(t *testing.T) {
	specs := []ir.ModuleSpec{{Name: "nvml"}, {Name: "cudadrv", Family: "cuda"}}

	_, err := Select(specs, "cusparse")
	require.Error(t, err)

	var unknown *UnknownModuleError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "cusparse", unknown.Name)
	assert.Equal(t, []string{"cudadrv", "nvml"}, unknown.Known)
	assert.Equal(t, []string{"cuda"}, unknown.Families)
	assert.Equal(t, `unknown module "cusparse" (known modules: cudadrv, nvml; families: cuda)`, err.Error())
}

func TestSelectUnknownWithoutFamilies(t *testing.T) {
	_, err := Select([]ir.ModuleSpec{{Name: "nvml"}}, "cusparse")
	require.Error(t, err)
	assert.Equal(t, `unknown module "cusparse" (known modules: nvml)`, err.Error())
}
