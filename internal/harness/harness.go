package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/wrapgen/internal/cheader"
	"github.com/roach88/wrapgen/internal/emit"
	"github.com/roach88/wrapgen/internal/engine"
	"github.com/roach88/wrapgen/internal/ir"
	"github.com/roach88/wrapgen/internal/store"
	"github.com/roach88/wrapgen/internal/testutil"
)

// scenarioSelection is the selection recorded for scenario runs.
const scenarioSelection = "scenario"

// Harness runs scenarios through the generation engine.
type Harness struct {
	parser engine.HeaderParser
	log    *zap.Logger
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithLogger sets the logger passed to the engine. Defaults to a no-op
// logger.
func WithLogger(l *zap.Logger) HarnessOption {
	return func(h *Harness) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a Harness around the given header parser.
func New(parser engine.HeaderParser, opts ...HarnessOption) *Harness {
	h := &Harness{parser: parser, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewDefault creates a Harness backed by the C header parser.
func NewDefault(opts ...HarnessOption) (*Harness, error) {
	p, err := cheader.NewParser()
	if err != nil {
		return nil, err
	}
	return New(p, opts...), nil
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in its own scratch directory and a fresh in-memory
// generation log, both discarded afterwards. A failing module is not an
// error: it is reported in the result and checked by module_failed
// assertions. The returned error covers harness failures only.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	root, err := os.MkdirTemp("", "wrapgen-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(root)

	spec, err := writeScenario(root, s)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	e := engine.New(h.parser,
		engine.WithStore(st),
		engine.WithIDGenerator(testutil.NewFixedRunIDGenerator(s.RunID)),
		engine.WithFormatter(emit.Tidy{}),
		engine.WithLogger(h.log),
	)

	run, err := e.Run(ctx, scenarioSelection, []ir.ModuleSpec{spec})
	if err != nil {
		return nil, fmt.Errorf("running scenario %s: %w", s.Name, err)
	}
	module := run.Modules[0]

	// Outcomes are read back from the generation log, as history shows them.
	_, records, err := st.ReadRun(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("reading run: %w", err)
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("expected 1 module record, got %d", len(records))
	}
	rec := records[0]

	diags, err := st.ReadDiagnostics(ctx, run.ID, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("reading diagnostics: %w", err)
	}

	result := NewResult()
	result.RunID = run.ID
	result.Module = spec.Name
	result.Status = rec.Status
	result.Phase = rec.Phase
	result.Error = strings.ReplaceAll(rec.Error, root, "$ROOT")
	result.Digest = rec.Digest
	result.Stats = module.Stats
	if diags != nil {
		result.Diagnostics = diags
	}

	if module.OK() {
		data, err := os.ReadFile(module.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("reading artifact: %w", err)
		}
		result.Output = string(data)
	}

	EvaluateAssertions(result, s.Assertions)
	return result, nil
}

// writeScenario writes the scenario's files under root and returns the
// module it describes.
func writeScenario(root string, s *Scenario) (ir.ModuleSpec, error) {
	files := make(map[string]string, len(s.Headers)+1)
	for _, h := range s.Headers {
		files[h.Path] = h.Content
	}
	files[s.configFile()] = s.Config
	if err := testutil.WriteTree(root, files); err != nil {
		return ir.ModuleSpec{}, fmt.Errorf("writing scenario files: %w", err)
	}

	spec := ir.ModuleSpec{
		Name:       s.ModuleName(),
		Family:     s.Family,
		Targets:    s.Targets,
		ConfigPath: filepath.Join(root, s.configFile()),
	}
	for _, h := range s.Headers {
		spec.Headers = append(spec.Headers, filepath.Join(root, filepath.FromSlash(h.Path)))
	}
	for _, dir := range s.IncludeDirs {
		spec.IncludeDirs = append(spec.IncludeDirs, filepath.Join(root, filepath.FromSlash(dir)))
	}
	for _, d := range s.Defines {
		name, value, _ := strings.Cut(d, "=")
		spec.Defines = append(spec.Defines, ir.Define{Name: name, Value: value})
	}
	return spec, nil
}
