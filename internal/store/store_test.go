package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wrapgen/internal/ir"
)

// v0Schema is the generation log as first released: no options digest
// column, no status index, user_version 0.
const v0Schema = `
CREATE TABLE runs (
    id           TEXT PRIMARY KEY,
    seq          INTEGER NOT NULL UNIQUE,
    selection    TEXT NOT NULL,
    tool_version TEXT NOT NULL,
    modules      INTEGER NOT NULL DEFAULT 0,
    failed       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE module_results (
    run_id      TEXT NOT NULL REFERENCES runs(id),
    module      TEXT NOT NULL,
    status      TEXT NOT NULL CHECK (status IN ('ok', 'failed')),
    phase       TEXT NOT NULL DEFAULT '',
    error       TEXT NOT NULL DEFAULT '',
    output_path TEXT NOT NULL DEFAULT '',
    digest      TEXT NOT NULL DEFAULT '',
    functions   INTEGER NOT NULL DEFAULT 0,
    guarded     INTEGER NOT NULL DEFAULT 0,
    checked     INTEGER NOT NULL DEFAULT 0,
    overridden  INTEGER NOT NULL DEFAULT 0,
    pruned      INTEGER NOT NULL DEFAULT 0,
    filtered    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, module)
);
CREATE TABLE diagnostics (
    run_id TEXT NOT NULL,
    module TEXT NOT NULL,
    seq    INTEGER NOT NULL,
    kind   TEXT NOT NULL,
    symbol TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, module, seq),
    FOREIGN KEY (run_id, module) REFERENCES module_results(run_id, module)
);
INSERT INTO runs (id, seq, selection, tool_version, modules, failed)
VALUES ('old-run', 1, 'all', '0.0.9', 1, 0);
INSERT INTO module_results (run_id, module, status, output_path, digest, functions)
VALUES ('old-run', 'cudadrv', 'ok', '/out/libcuda.jl', 'old-digest', 42);
`

// writeLegacyLog creates a log at path from v0Schema, stamped with version.
func writeLegacyLog(t *testing.T, path string, version int) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(v0Schema)
	require.NoError(t, err)
	if version > 0 {
		_, err = db.Exec("CREATE INDEX idx_module_results_status ON module_results(status, run_id)")
		require.NoError(t, err)
		_, err = db.Exec("PRAGMA user_version = 1")
		require.NoError(t, err)
	}
}

func userVersion(t *testing.T, s *Store) int {
	t.Helper()
	var v int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func hasStatusIndex(t *testing.T, s *Store) bool {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_module_results_status'",
	).Scan(&n))
	return n == 1
}

func TestOpen_CreatesLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapgen.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "wrapgen.db"))
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	assert.NoError(t, (&Store{}).Close(), "zero store")

	s, err := Open(filepath.Join(t.TempDir(), "wrapgen.db"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	_ = s.Close()
}

func TestOpen_ReopenKeepsRunOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapgen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	for _, id := range []string{"run-a", "run-b"} {
		_, err := s.BeginRun(ctx, id, "all", ir.ToolVersion)
		require.NoError(t, err)
	}
	require.NoError(t, s.WriteModuleResult(ctx, createTestModuleRecord("run-a", "nvml")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.BeginRun(ctx, "run-c", "cuda", ir.ToolVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.Seq, "seq continues after reopen")

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Equal(t, "run-a", runs[2].ID)

	_, modules, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "options-nvml", modules[0].OptionsDigest)
}

func TestOpen_MemoryLogsAreIndependent(t *testing.T) {
	ctx := context.Background()

	a, err := Open(":memory:")
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.BeginRun(ctx, "run-1", "all", ir.ToolVersion)
	require.NoError(t, err)

	runs, err := b.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMigration_FreshLogIsCurrent(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, schemaVersion, userVersion(t, s))
	assert.True(t, hasStatusIndex(t, s))
}

func TestMigration_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapgen.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i)
		assert.Equal(t, schemaVersion, userVersion(t, s))
		require.NoError(t, s.Close())
	}
}

func TestMigration_UpgradesLegacyLog(t *testing.T) {
	tests := []struct {
		name    string
		version int
	}{
		{"v0 without index or options digest", 0},
		{"v1 without options digest", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wrapgen.db")
			writeLegacyLog(t, path, tt.version)
			ctx := context.Background()

			s, err := Open(path)
			require.NoError(t, err)
			defer s.Close()

			assert.Equal(t, schemaVersion, userVersion(t, s))
			assert.True(t, hasStatusIndex(t, s))

			run, modules, err := s.ReadRun(ctx, "old-run")
			require.NoError(t, err)
			assert.Equal(t, "0.0.9", run.ToolVersion)
			require.Len(t, modules, 1)
			assert.Equal(t, "old-digest", modules[0].Digest)
			assert.Equal(t, 42, modules[0].Functions)
			assert.Empty(t, modules[0].OptionsDigest, "rows written before the column get an empty digest")

			next, err := s.BeginRun(ctx, "new-run", "all", ir.ToolVersion)
			require.NoError(t, err)
			assert.Equal(t, int64(2), next.Seq)
			require.NoError(t, s.WriteModuleResult(ctx, createTestModuleRecord("new-run", "cudadrv")))

			_, modules, err = s.ReadRun(ctx, "new-run")
			require.NoError(t, err)
			require.Len(t, modules, 1)
			assert.Equal(t, "options-cudadrv", modules[0].OptionsDigest)
		})
	}
}

func TestConstraint_ModuleResultRequiresRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO module_results (run_id, module, status) VALUES ('orphan', 'nvml', 'ok')`)
	assert.Error(t, err, "foreign keys are enforced")
}

func TestConstraint_StatusValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginRun(ctx, "run-1", "all", ir.ToolVersion)
	require.NoError(t, err)

	rec := createTestModuleRecord("run-1", "nvml")
	rec.Status = "skipped"
	assert.Error(t, s.WriteModuleResult(ctx, rec))
}

func TestConstraint_DiagnosticRequiresModuleResult(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.BeginRun(ctx, "run-1", "all", ir.ToolVersion)
	require.NoError(t, err)

	err = s.WriteDiagnostics(ctx, []ir.DiagnosticRecord{
		{RunID: "run-1", Module: "nvml", Seq: 1, Kind: "alias_pruned", Symbol: "nvmlInit"},
	})
	assert.Error(t, err)

	diags, err := s.ReadDiagnostics(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Empty(t, diags, "the failed batch is rolled back")
}
