package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wrapgen/internal/ir"
)

// ErrRunNotFound is returned when a run ID is not in the log.
var ErrRunNotFound = errors.New("run not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.RunRecord, error) {
	var r ir.RunRecord
	err := row.Scan(&r.ID, &r.Seq, &r.Selection, &r.ToolVersion, &r.Modules, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrRunNotFound
	}
	return r, err
}

// ListRuns returns the most recent runs, newest first.
// A limit of zero or less returns every run.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, selection, tool_version, modules, failed
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a run and its module results ordered by module name.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, []ir.ModuleRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `
		SELECT id, seq, selection, tool_version, modules, failed
		FROM runs WHERE id = ?
	`, id))
	if err != nil {
		return ir.RunRecord{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, module, status, phase, error, output_path, digest, options_digest,
		       functions, guarded, checked, overridden, pruned, filtered
		FROM module_results
		WHERE run_id = ?
		ORDER BY module COLLATE BINARY ASC
	`, id)
	if err != nil {
		return ir.RunRecord{}, nil, fmt.Errorf("query module results: %w", err)
	}
	defer rows.Close()

	modules := []ir.ModuleRecord{}
	for rows.Next() {
		var m ir.ModuleRecord
		if err := rows.Scan(
			&m.RunID, &m.Module, &m.Status, &m.Phase, &m.Error, &m.OutputPath, &m.Digest, &m.OptionsDigest,
			&m.Functions, &m.Guarded, &m.Checked, &m.Overridden, &m.Pruned, &m.Filtered,
		); err != nil {
			return ir.RunRecord{}, nil, fmt.Errorf("scan module result: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return ir.RunRecord{}, nil, fmt.Errorf("iterate module results: %w", err)
	}
	return run, modules, nil
}

// ReadDiagnostics returns the diagnostics of a run, ordered by module then seq.
// An empty module name returns the diagnostics of every module.
func (s *Store) ReadDiagnostics(ctx context.Context, runID, module string) ([]ir.DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, module, seq, kind, symbol, detail
		FROM diagnostics
		WHERE run_id = ? AND (? = '' OR module = ?)
		ORDER BY module COLLATE BINARY ASC, seq ASC
	`, runID, module, module)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []ir.DiagnosticRecord{}
	for rows.Next() {
		var d ir.DiagnosticRecord
		if err := rows.Scan(&d.RunID, &d.Module, &d.Seq, &d.Kind, &d.Symbol, &d.Detail); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}
