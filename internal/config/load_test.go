package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cudaTOML = `
[general]
output_file_path = "../lib/libcuda.jl"
library_name = "libcuda"

[api]
checked_rettypes = ["CUresult"]

[api.cuMemAlloc.argtypes]
0 = "Ptr{CuPtr{Cvoid}}"

[api.cuGetErrorString]
needs_context = false

[api."cublas𝕏gemm".argtypes]
2 = "Ptr{T}"
5 = "Ref{S}"
`

func TestParseTOML(t *testing.T) {
	opts, err := Parse([]byte(cudaTOML), FormatTOML, "cudadrv")
	require.NoError(t, err)

	assert.Equal(t, "../lib/libcuda.jl", opts.OutputFilePath)
	assert.Equal(t, "libcuda", opts.LibraryName)
	assert.Equal(t, DefaultContextHook, opts.ContextHook)
	assert.Equal(t, DefaultTransparentWrappers, opts.TransparentWrappers)
	assert.True(t, opts.IsChecked("CUresult"))
	assert.False(t, opts.IsChecked("Cint"))
	assert.NotEmpty(t, opts.Digest)

	alloc, ok := opts.Functions["cuMemAlloc"]
	require.True(t, ok)
	assert.Equal(t, map[int]string{0: "Ptr{CuPtr{Cvoid}}"}, alloc.ArgTypes)
	assert.True(t, alloc.NeedsContext, "needs_context defaults to true")

	errStr, ok := opts.Functions["cuGetErrorString"]
	require.True(t, ok)
	assert.False(t, errStr.NeedsContext)

	gemm, ok := opts.Templates["cublas𝕏gemm"]
	require.True(t, ok)
	assert.Equal(t, []int{2, 5}, gemm.Indices())
	_, exact := opts.Functions["cublas𝕏gemm"]
	assert.False(t, exact, "template keys are not exact entries")
}

func TestParseYAML(t *testing.T) {
	data := `
general:
  output_file_path: out/libnvml.jl
  context_hook: initialize_nvml
  transparent_wrappers: []
  format_command: ["julia", "--project", "format.jl"]
api:
  checked_rettypes: [nvmlReturn_t]
  nvmlDeviceGetCount_v2:
    argtypes:
      0: Ref{Cuint}
  nvmlInit_v2:
    needs_context: false
`
	opts, err := Parse([]byte(data), FormatYAML, "nvml")
	require.NoError(t, err)

	assert.Equal(t, "nvml", opts.LibraryName, "library name defaults to module name")
	assert.Equal(t, "initialize_nvml", opts.ContextHook)
	assert.Empty(t, opts.TransparentWrappers)
	assert.Equal(t, []string{"julia", "--project", "format.jl"}, opts.FormatCommand)
	assert.True(t, opts.IsChecked("nvmlReturn_t"))
	assert.Equal(t, "Ref{Cuint}", opts.Functions["nvmlDeviceGetCount_v2"].ArgTypes[0])
	assert.False(t, opts.Functions["nvmlInit_v2"].NeedsContext)
}

func TestDigestIgnoresFileFormat(t *testing.T) {
	fromTOML, err := Parse([]byte(cudaTOML), FormatTOML, "cudadrv")
	require.NoError(t, err)

	yamlData := `
api:
  "cublas𝕏gemm":
    argtypes:
      5: Ref{S}
      2: Ptr{T}
  cuGetErrorString:
    needs_context: false
  cuMemAlloc:
    argtypes:
      0: Ptr{CuPtr{Cvoid}}
  checked_rettypes: [CUresult]
general:
  library_name: libcuda
  output_file_path: ../lib/libcuda.jl
`
	fromYAML, err := Parse([]byte(yamlData), FormatYAML, "cudadrv")
	require.NoError(t, err)
	assert.Equal(t, fromTOML.Digest, fromYAML.Digest)

	changed, err := Parse([]byte(strings.Replace(cudaTOML, `0 = "Ptr{CuPtr{Cvoid}}"`, `0 = "Ptr{Cvoid}"`, 1)), FormatTOML, "cudadrv")
	require.NoError(t, err)
	assert.NotEqual(t, fromTOML.Digest, changed.Digest)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
	}{
		{"missing general", `[api]`, "general.output_file_path"},
		{"missing output path", "[general]\nlibrary_name = \"x\"", "general.output_file_path"},
		{"bad index", "[general]\noutput_file_path = \"o.jl\"\n[api.f.argtypes]\nx = \"Cint\"", "api.f.argtypes.x"},
		{"negative index", "[general]\noutput_file_path = \"o.jl\"\n[api.f.argtypes]\n-1 = \"Cint\"", "api.f.argtypes.-1"},
		{"non-string type", "[general]\noutput_file_path = \"o.jl\"\n[api.f.argtypes]\n0 = 3", "api.f.argtypes.0"},
		{"needs_context type", "[general]\noutput_file_path = \"o.jl\"\n[api.f]\nneeds_context = \"no\"", "api.f.needs_context"},
		{"unknown option", "[general]\noutput_file_path = \"o.jl\"\n[api.f]\nargtype = 1", "api.f.argtype"},
		{"two placeholders", "[general]\noutput_file_path = \"o.jl\"\n[api.\"a𝕏b𝕏\"]\nneeds_context = true", "api.a𝕏b𝕏"},
		{"checked not list", "[general]\noutput_file_path = \"o.jl\"\n[api]\nchecked_rettypes = \"CUresult\"", "api.checked_rettypes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatTOML, "m")
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T: %v", err, err)
			assert.Equal(t, tt.key, le.Key)
		})
	}
}

func TestParseMalformedTOML(t *testing.T) {
	_, err := Parse([]byte("[general\n"), FormatTOML, "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding TOML")
}

func TestLoadResolvesOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cudadrv.toml")
	require.NoError(t, os.WriteFile(path, []byte(cudaTOML), 0644))

	opts, err := Load(path, "cudadrv")
	require.NoError(t, err)
	assert.Equal(t, path, opts.Path)
	assert.Equal(t, filepath.Join(dir, "..", "lib", "libcuda.jl"), opts.OutputFilePath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "m")
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\n"), 0644))

	_, err := Load(path, "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("b.YML"))
	assert.Equal(t, FormatTOML, FormatForPath("b.toml"))
	assert.Equal(t, FormatTOML, FormatForPath("b"))
}

func TestValidateTypeExpressions(t *testing.T) {
	data := `
[general]
output_file_path = "o.jl"

[api.good.argtypes]
0 = "Ptr{Cint}"

[api.bad.argtypes]
1 = "Ptr{Cint"

[api."bad𝕏tmpl".argtypes]
0 = "{T}"
`
	opts, err := Parse([]byte(data), FormatTOML, "m")
	require.NoError(t, err)

	errs := opts.Validate()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "api.bad.argtypes.1")
	assert.Contains(t, errs[1].Error(), "api.bad𝕏tmpl.argtypes.0")
}

func TestIsTransparentWrapper(t *testing.T) {
	opts := NewOptions("m")
	assert.True(t, opts.IsTransparentWrapper("__CUDA_API_PTDS"))
	assert.False(t, opts.IsTransparentWrapper("cuMemcpy"))
}
