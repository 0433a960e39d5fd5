package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wrapgen/internal/ir"
	"github.com/roach88/wrapgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	RunID string
	Limit int
}

// RunDetail is one run with its module outcomes and diagnostics.
type RunDetail struct {
	Run         ir.RunRecord          `json:"run"`
	Modules     []ir.ModuleRecord     `json:"modules"`
	Diagnostics []ir.DiagnosticRecord `json:"diagnostics"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generation runs",
		Long: `Show runs recorded in the generation log.

Without --run, lists the most recent runs, newest first. With --run,
shows that run's module outcomes and the diagnostics of every module.

Examples:
  wrapgen history --db wrapgen.db
  wrapgen history --db wrapgen.db --limit 5
  wrapgen history --db wrapgen.db --run 0192f7a0-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "generation log database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run in detail")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs listed (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.DB == "" {
		_ = formatter.Error(ErrCodeNotFound, "--db is required", nil)
		return NewExitError(ExitCommandError, "--db is required")
	}
	// Open would create a missing database; an absent log is a usage error.
	if _, err := os.Stat(opts.DB); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), nil)
		return WrapExitError(ExitCommandError, "opening generation log", err)
	}
	s, err := store.Open(opts.DB)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening generation log", err)
	}
	defer s.Close()

	ctx := cmd.Context()

	if opts.RunID == "" {
		runs, err := s.ListRuns(ctx, opts.Limit)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "listing runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		writeRunList(formatter.Writer, runs)
		return nil
	}

	run, modules, err := s.ReadRun(ctx, opts.RunID)
	if err != nil {
		code := ErrCodeStore
		if errors.Is(err, store.ErrRunNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading run", err)
	}
	diags, err := s.ReadDiagnostics(ctx, opts.RunID, "")
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading diagnostics", err)
	}

	detail := RunDetail{Run: run, Modules: modules, Diagnostics: diags}
	if opts.Format == "json" {
		return formatter.Success(detail)
	}
	writeRunDetail(formatter.Writer, detail, opts.Verbose)
	return nil
}

func writeRunList(w io.Writer, runs []ir.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "#%d  %s  %-12s %d module(s), %d failed  (wrapgen %s)\n",
			r.Seq, r.ID, r.Selection, r.Modules, r.Failed, r.ToolVersion)
	}
}

func writeRunDetail(w io.Writer, d RunDetail, verbose bool) {
	fmt.Fprintf(w, "Run #%d %s\n", d.Run.Seq, d.Run.ID)
	fmt.Fprintf(w, "  selection: %s, %d module(s), %d failed\n\n", d.Run.Selection, d.Run.Modules, d.Run.Failed)

	perModule := map[string]int{}
	for _, diag := range d.Diagnostics {
		perModule[diag.Module]++
	}

	for _, m := range d.Modules {
		if m.Status != ir.StatusOK {
			fmt.Fprintf(w, "✗ %s (%s)\n  %s\n", m.Module, m.Phase, m.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s -> %s\n", m.Module, m.OutputPath)
		fmt.Fprintf(w, "  %d function(s), %d overridden, %d guarded, %d checked, %d pruned, %d filtered, %d diagnostic(s)\n",
			m.Functions, m.Overridden, m.Guarded, m.Checked, m.Pruned, m.Filtered, perModule[m.Module])
	}

	if !verbose {
		return
	}
	fmt.Fprintln(w)
	for _, diag := range d.Diagnostics {
		if diag.Detail == "" {
			fmt.Fprintf(w, "  [%s] %s %s\n", diag.Module, diag.Kind, diag.Symbol)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s %s: %s\n", diag.Module, diag.Kind, diag.Symbol, diag.Detail)
	}
}
