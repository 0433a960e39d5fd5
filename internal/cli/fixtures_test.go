package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const cudaHeader = `typedef int CUresult;
CUresult cuInit(unsigned int Flags);
CUresult cuDriverGetVersion(int *driverVersion);
`

const cudaOptions = `[general]
output_file_path = "out/cudadrv.jl"
library_name = "libcuda"

[api]
checked_rettypes = ["CUresult"]

[api.cuDriverGetVersion]
needs_context = false
`

const nvmlHeader = `typedef int nvmlReturn_t;
nvmlReturn_t nvmlInit_v2(void);
`

const nvmlOptions = `[general]
output_file_path = "out/nvml.jl"
library_name = "libnvml"
`

const testRegistry = `package registry

module: cudadrv: {
	family:  "cuda"
	headers: ["include/cuda.h"]
	targets: ["cuda.h"]
	config:  "cudadrv.toml"
}

module: cudart: {
	family:  "cuda"
	headers: ["include/cuda.h"]
	config:  "cudart.toml"
}

module: nvml: {
	headers: ["include/nvml.h"]
	config:  "nvml.toml"
}
`

// writeFiles writes files relative to dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// writeRegistry writes a three-module registry with its headers and
// options files into a fresh directory and returns the registry path.
func writeRegistry(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"registry.cue":   testRegistry,
		"include/cuda.h": cudaHeader,
		"include/nvml.h": nvmlHeader,
		"cudadrv.toml":   cudaOptions,
		"cudart.toml":    "[general]\noutput_file_path = \"out/cudart.jl\"\nlibrary_name = \"libcudart\"\n",
		"nvml.toml":      nvmlOptions,
	})
	return filepath.Join(dir, "registry.cue")
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
