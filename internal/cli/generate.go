package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/wrapgen/internal/engine"
	"github.com/roach88/wrapgen/internal/rewrite"
	"github.com/roach88/wrapgen/internal/store"
)

// DefaultRegistry is the registry path used when --registry is not set.
const DefaultRegistry = "registry.cue"

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Registry string
	Jobs     int
	DB       string // generation log; empty disables recording
}

// ModuleReport is the per-module part of a generate report.
type ModuleReport struct {
	Module     string        `json:"module"`
	Status     string        `json:"status"` // "ok" | "failed"
	OutputPath string        `json:"output_path,omitempty"`
	Digest     string        `json:"digest,omitempty"`
	Phase      string        `json:"phase,omitempty"`
	Error      string        `json:"error,omitempty"`
	Stats      rewrite.Stats `json:"stats"`
}

// GenerateReport is the result of a generate command.
type GenerateReport struct {
	RunID     string         `json:"run_id"`
	Selection string         `json:"selection"`
	Modules   []ModuleReport `json:"modules"`
	Failed    int            `json:"failed"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [module|family|all]",
		Short: "Generate bindings for registry modules",
		Long: `Generate binding files for the selected modules.

With no argument, or "all", every module of the registry is generated.
A module name selects that module; a family name selects every module
of the family. A failing module never stops the others.

Exit codes:
  0 - All modules generated
  1 - One or more modules failed
  2 - Command error (bad registry, unknown module, database error)

Examples:
  wrapgen generate
  wrapgen generate cudadrv --registry res/wrap/registry.cue
  wrapgen generate cuda --jobs 4 --db wrapgen.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			selection := SelectAll
			if len(args) == 1 {
				selection = args[0]
			}
			return runGenerate(opts, selection, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Registry, "registry", "r", DefaultRegistry, "registry file or directory")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "modules generated concurrently")
	cmd.Flags().StringVar(&opts.DB, "db", "", "generation log database (optional)")

	return cmd
}

func runGenerate(opts *GenerateOptions, selection string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry, loadErrs := LoadRegistry(opts.Registry, LoadModeFailFast)
	if len(loadErrs) > 0 {
		return commandError(formatter, loadErrs[0])
	}
	formatter.VerboseLog("Loaded %d module(s) from %s", len(registry.Modules), opts.Registry)

	specs, err := Select(registry.Modules, selection)
	if err != nil {
		return commandError(formatter, err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer logger.Sync()

	engineOpts := []engine.EngineOption{
		engine.WithJobs(opts.Jobs),
		engine.WithLogger(logger),
	}
	if opts.DB != "" {
		s, err := store.Open(opts.DB)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening generation log", err)
		}
		defer s.Close()
		engineOpts = append(engineOpts, engine.WithStore(s))
	}

	e, err := engine.NewDefault(engineOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "creating header parser", err)
	}

	run, err := e.Run(cmd.Context(), selection, specs)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "recording run", err)
	}

	report := buildGenerateReport(run)
	if opts.Format == "json" {
		status := "ok"
		if report.Failed > 0 {
			status = "error"
		}
		if err := formatter.Encode(CLIResponse{Status: status, Data: report, RunID: run.ID}); err != nil {
			return err
		}
	} else {
		writeGenerateText(formatter.Writer, report)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d module(s) failed", report.Failed, len(report.Modules)))
	}
	return nil
}

func buildGenerateReport(run *engine.RunResult) GenerateReport {
	report := GenerateReport{
		RunID:     run.ID,
		Selection: run.Selection,
		Modules:   make([]ModuleReport, 0, len(run.Modules)),
		Failed:    run.Failed(),
	}
	for _, m := range run.Modules {
		mr := ModuleReport{
			Module:     m.Module,
			Status:     "ok",
			OutputPath: m.OutputPath,
			Digest:     m.Digest,
			Stats:      m.Stats,
		}
		if m.Err != nil {
			mr.Status = "failed"
			mr.Phase = string(engine.PhaseOf(m.Err))
			mr.Error = m.Err.Error()
		}
		report.Modules = append(report.Modules, mr)
	}
	return report
}

func writeGenerateText(w io.Writer, report GenerateReport) {
	for _, m := range report.Modules {
		if m.Status != "ok" {
			fmt.Fprintf(w, "✗ %s\n", m.Module)
			fmt.Fprintf(w, "  %s\n", m.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s -> %s\n", m.Module, m.OutputPath)
		fmt.Fprintf(w, "  %d function(s), %d overridden, %d guarded, %d checked, %d pruned, %d filtered\n",
			m.Stats.Functions, m.Stats.Overridden, m.Stats.Guarded, m.Stats.Checked,
			m.Stats.Shadowed+m.Stats.Aliases, m.Stats.Filtered)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d module(s), %d failed (run %s)\n", len(report.Modules), report.Failed, report.RunID)
}

// commandError reports a load or selection failure and maps it to
// exit code 2.
func commandError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	var unknown *UnknownModuleError
	switch {
	case errors.As(err, &loadErr):
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "loading registry", err)
	case errors.As(err, &unknown):
		_ = formatter.Error(ErrCodeUnknownModule, unknown.Error(), unknown.Known)
		return WrapExitError(ExitCommandError, "selecting modules", err)
	default:
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "generate", err)
	}
}
