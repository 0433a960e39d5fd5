package store

import (
	"context"
	"fmt"

	"github.com/roach88/wrapgen/internal/ir"
)

// BeginRun records a new run and assigns it the next seq.
// Writing the same run ID twice returns the existing record.
func (s *Store) BeginRun(ctx context.Context, id, selection, toolVersion string) (ir.RunRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, selection, tool_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, selection, toolVersion)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("begin run: %w", err)
	}

	rec, err := scanRun(tx.QueryRowContext(ctx, `
		SELECT id, seq, selection, tool_version, modules, failed
		FROM runs WHERE id = ?
	`, id))
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("begin run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.RunRecord{}, fmt.Errorf("begin run: %w", err)
	}
	return rec, nil
}

// FinishRun stores the final module counts of a run.
func (s *Store) FinishRun(ctx context.Context, id string, modules, failed int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET modules = ?, failed = ? WHERE id = ?
	`, modules, failed, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: %w", ErrRunNotFound)
	}
	return nil
}

// WriteModuleResult records the outcome of one module.
// Uses ON CONFLICT DO NOTHING: the first result written for a module wins.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteModuleResult(ctx context.Context, rec ir.ModuleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO module_results
		(run_id, module, status, phase, error, output_path, digest, options_digest,
		 functions, guarded, checked, overridden, pruned, filtered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.RunID,
		rec.Module,
		rec.Status,
		rec.Phase,
		rec.Error,
		rec.OutputPath,
		rec.Digest,
		rec.OptionsDigest,
		rec.Functions,
		rec.Guarded,
		rec.Checked,
		rec.Overridden,
		rec.Pruned,
		rec.Filtered,
	)
	if err != nil {
		return fmt.Errorf("write module result: %w", err)
	}
	return nil
}

// WriteDiagnostics records a module's diagnostics in one transaction.
//
// Note: The module result must be written first (foreign key constraint).
func (s *Store) WriteDiagnostics(ctx context.Context, diags []ir.DiagnosticRecord) error {
	if len(diags) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics (run_id, module, seq, kind, symbol, detail)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.ExecContext(ctx, d.RunID, d.Module, d.Seq, d.Kind, d.Symbol, d.Detail); err != nil {
			return fmt.Errorf("write diagnostics: %s #%d: %w", d.Module, d.Seq, err)
		}
	}
	return tx.Commit()
}
