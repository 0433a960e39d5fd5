package engine

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/wrapgen/internal/cheader"
	"github.com/roach88/wrapgen/internal/config"
	"github.com/roach88/wrapgen/internal/emit"
	"github.com/roach88/wrapgen/internal/ir"
	"github.com/roach88/wrapgen/internal/rewrite"
	"github.com/roach88/wrapgen/internal/store"
)

// HeaderParser turns a module's headers into a declaration graph.
// Implemented by *cheader.Parser; tests substitute in-memory graphs.
type HeaderParser interface {
	Parse(ctx context.Context, spec ir.ModuleSpec, args []string) (*ir.Graph, error)
}

// Engine generates bindings for registry modules.
//
// An Engine holds no per-module state and is safe to share between
// goroutines once built.
type Engine struct {
	parser    HeaderParser
	store     *store.Store
	ids       RunIDGenerator
	jobs      int
	log       *zap.Logger
	formatter emit.Formatter // nil: per-module formatter from options
	version   string
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStore attaches a generation log. Every run and module outcome is
// recorded in it.
func WithStore(s *store.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithJobs sets the number of modules processed concurrently.
// Values below 1 mean sequential processing.
func WithJobs(n int) EngineOption {
	return func(e *Engine) {
		e.jobs = n
	}
}

// WithLogger sets the engine logger. Defaults to the package Logger().
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIDGenerator sets the run ID source. Defaults to UUIDv7Generator.
func WithIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithFormatter replaces the formatter of every module, ignoring
// general.format_command.
func WithFormatter(f emit.Formatter) EngineOption {
	return func(e *Engine) {
		e.formatter = f
	}
}

// WithToolVersion overrides the version recorded in the generation log.
func WithToolVersion(v string) EngineOption {
	return func(e *Engine) {
		e.version = v
	}
}

// New creates an Engine around the given header parser.
func New(parser HeaderParser, opts ...EngineOption) *Engine {
	e := &Engine{
		parser:  parser,
		ids:     UUIDv7Generator{},
		jobs:    1,
		log:     Logger(),
		version: ir.ToolVersion,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.jobs < 1 {
		e.jobs = 1
	}
	return e
}

// NewDefault creates an Engine backed by the C header parser.
func NewDefault(opts ...EngineOption) (*Engine, error) {
	p, err := cheader.NewParser()
	if err != nil {
		return nil, err
	}
	return New(p, opts...), nil
}

// ModuleResult is the outcome of one module.
// Err is nil on success and a *ModuleError otherwise.
type ModuleResult struct {
	Module        string               `json:"module"`
	OutputPath    string               `json:"output_path,omitempty"`
	Digest        string               `json:"digest,omitempty"`
	OptionsDigest string               `json:"options_digest,omitempty"`
	Stats         rewrite.Stats        `json:"stats"`
	Diagnostics   []rewrite.Diagnostic `json:"diagnostics,omitempty"`
	Err           error                `json:"-"`
}

// OK reports whether the module succeeded.
func (r ModuleResult) OK() bool {
	return r.Err == nil
}

// Record converts the result to its generation log row.
func (r ModuleResult) Record(runID string) ir.ModuleRecord {
	rec := ir.ModuleRecord{
		RunID:         runID,
		Module:        r.Module,
		Status:        ir.StatusOK,
		OutputPath:    r.OutputPath,
		Digest:        r.Digest,
		OptionsDigest: r.OptionsDigest,
		Functions:     r.Stats.Functions,
		Guarded:       r.Stats.Guarded,
		Checked:       r.Stats.Checked,
		Overridden:    r.Stats.Overridden,
		Pruned:        r.Stats.Shadowed + r.Stats.Aliases,
		Filtered:      r.Stats.Filtered,
	}
	if r.Err != nil {
		rec.Status = ir.StatusFailed
		rec.Phase = string(PhaseOf(r.Err))
		rec.Error = r.Err.Error()
	}
	return rec
}

// DiagnosticRecords converts the diagnostics to generation log rows,
// numbered from 1 in pass order.
func (r ModuleResult) DiagnosticRecords(runID string) []ir.DiagnosticRecord {
	out := make([]ir.DiagnosticRecord, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = ir.DiagnosticRecord{
			RunID:  runID,
			Module: r.Module,
			Seq:    int64(i + 1),
			Kind:   string(d.Kind),
			Symbol: d.Symbol,
			Detail: d.Detail,
		}
	}
	return out
}

// ProcessModule generates the binding artifact of one module.
//
// Steps: parser arguments, options file, header parse, prune, target
// filter, rewrite, emit, write, format, digest. The first failing step
// ends the module with a *ModuleError naming its phase.
func (e *Engine) ProcessModule(ctx context.Context, spec ir.ModuleSpec) ModuleResult {
	res := ModuleResult{Module: spec.Name}
	log := e.log.With(zap.String("module", spec.Name))

	fail := func(phase Phase, err error) ModuleResult {
		res.Err = &ModuleError{Module: spec.Name, Phase: phase, Err: err}
		log.Error("module failed", zap.String("phase", string(phase)), zap.Error(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(PhaseCancelled, err)
	}

	args := cheader.BuildArgs(spec)

	opts, err := config.Load(spec.ConfigPath, spec.Name)
	if err != nil {
		return fail(PhaseConfig, err)
	}
	res.OptionsDigest = opts.Digest
	res.OutputPath = opts.OutputFilePath

	g, err := e.parser.Parse(ctx, spec, args)
	if err != nil {
		return fail(PhaseParse, err)
	}
	log.Debug("parsed headers", zap.Int("headers", len(spec.Headers)), zap.Stringer("graph", g))

	stats, diags, err := rewrite.Run(g, opts, spec.Targets)
	res.Stats = stats
	res.Diagnostics = diags
	for _, d := range diags {
		log.Debug("diagnostic", zap.String("kind", string(d.Kind)), zap.String("symbol", d.Symbol), zap.String("detail", d.Detail))
	}
	if err != nil {
		return fail(PhaseRewrite, err)
	}

	text, err := emit.New(opts).Emit(g)
	if err != nil {
		return fail(PhaseEmit, err)
	}

	if err := emit.WriteArtifact(opts.OutputFilePath, text); err != nil {
		return fail(PhaseIO, err)
	}

	formatter := e.formatter
	if formatter == nil {
		formatter = emit.FormatterFor(opts.FormatCommand)
	}
	if err := formatter.Format(ctx, opts.OutputFilePath); err != nil {
		return fail(PhaseFormat, err)
	}

	final, err := os.ReadFile(opts.OutputFilePath)
	if err != nil {
		return fail(PhaseIO, fmt.Errorf("reading formatted artifact: %w", err))
	}
	res.Digest = ir.ArtifactDigest(spec.Name, string(final))

	log.Info("module generated",
		zap.String("output", opts.OutputFilePath),
		zap.Int("functions", stats.Functions),
		zap.Int("overridden", stats.Overridden),
		zap.Int("guarded", stats.Guarded),
		zap.Int("checked", stats.Checked),
		zap.Int("pruned", stats.Shadowed+stats.Aliases),
		zap.Int("filtered", stats.Filtered),
	)
	return res
}

// RunResult is the outcome of one generation run.
type RunResult struct {
	ID        string         `json:"id"`
	Selection string         `json:"selection"`
	Modules   []ModuleResult `json:"modules"`
}

// Failed returns the number of failed modules.
func (r *RunResult) Failed() int {
	n := 0
	for _, m := range r.Modules {
		if !m.OK() {
			n++
		}
	}
	return n
}

// Run processes every module of a selection.
//
// Module failures are captured in the results and never abort the run;
// results are in input order. The returned error reports generation log
// failures only. When ctx is cancelled, modules not yet started fail with
// PhaseCancelled.
func (e *Engine) Run(ctx context.Context, selection string, specs []ir.ModuleSpec) (*RunResult, error) {
	run := &RunResult{
		ID:        e.ids.Generate(),
		Selection: selection,
		Modules:   make([]ModuleResult, len(specs)),
	}
	log := e.log.With(zap.String("run", run.ID))
	log.Info("run started", zap.String("selection", selection), zap.Int("modules", len(specs)), zap.Int("jobs", e.jobs))

	if e.store != nil {
		if _, err := e.store.BeginRun(ctx, run.ID, selection, e.version); err != nil {
			return run, fmt.Errorf("recording run: %w", err)
		}
	}

	if e.jobs == 1 || len(specs) < 2 {
		for i, spec := range specs {
			run.Modules[i] = e.ProcessModule(ctx, spec)
		}
	} else {
		e.runPool(ctx, specs, run.Modules)
	}

	if e.store != nil {
		if err := e.record(ctx, run); err != nil {
			return run, err
		}
	}

	log.Info("run finished", zap.Int("modules", len(specs)), zap.Int("failed", run.Failed()))
	return run, nil
}

// runPool processes specs on at most e.jobs goroutines. Each worker writes
// only its own slot of results.
func (e *Engine) runPool(ctx context.Context, specs []ir.ModuleSpec, results []ModuleResult) {
	sem := make(chan struct{}, e.jobs)
	var wg sync.WaitGroup
	for i, spec := range specs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = ModuleResult{
				Module: spec.Name,
				Err:    &ModuleError{Module: spec.Name, Phase: PhaseCancelled, Err: ctx.Err()},
			}
			continue
		}
		wg.Add(1)
		go func(i int, spec ir.ModuleSpec) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.ProcessModule(ctx, spec)
		}(i, spec)
	}
	wg.Wait()
}

// record writes the run's module outcomes and diagnostics, then closes
// the run row. Recording is sequential; the store has one connection.
func (e *Engine) record(ctx context.Context, run *RunResult) error {
	// The log is written even when ctx was cancelled mid-run.
	ctx = context.WithoutCancel(ctx)
	for _, m := range run.Modules {
		if err := e.store.WriteModuleResult(ctx, m.Record(run.ID)); err != nil {
			return fmt.Errorf("recording module %s: %w", m.Module, err)
		}
		if err := e.store.WriteDiagnostics(ctx, m.DiagnosticRecords(run.ID)); err != nil {
			return fmt.Errorf("recording diagnostics of %s: %w", m.Module, err)
		}
	}
	if err := e.store.FinishRun(ctx, run.ID, len(run.Modules), run.Failed()); err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}
