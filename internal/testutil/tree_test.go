package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTree_CreatesNestedFiles(t *testing.T) {
	root := t.TempDir()

	err := WriteTree(root, map[string]string{
		"include/cuda.h":   "int cuInit(unsigned int);\n",
		"res/cudadrv.toml": "[general]\n",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "include", "cuda.h"))
	require.NoError(t, err)
	assert.Equal(t, "int cuInit(unsigned int);\n", string(data))

	_, err = os.Stat(filepath.Join(root, "res", "cudadrv.toml"))
	assert.NoError(t, err)
}

func TestWriteTree_RejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()

	for _, p := range []string{"", "../outside.h", "/abs/path.h"} {
		err := WriteTree(root, map[string]string{p: "x"})
		assert.Error(t, err, "path %q", p)
	}
}
