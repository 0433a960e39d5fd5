package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/wrapgen/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestModuleRecord creates a successful module record.
func createTestModuleRecord(runID, module string) ir.ModuleRecord {
	return ir.ModuleRecord{
		RunID:         runID,
		Module:        module,
		Status:        ir.StatusOK,
		OutputPath:    "/out/" + module + ".jl",
		Digest:        "digest-" + module,
		OptionsDigest: "options-" + module,
		Functions:     3,
		Guarded:       2,
		Checked:       2,
		Overridden:    1,
		Pruned:        1,
	}
}
